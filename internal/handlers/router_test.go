package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/auth"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/middleware"
	"github.com/ukydev/service-center/internal/models"
	"github.com/ukydev/service-center/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testAPI drives the full router over an in-memory store.
type testAPI struct {
	t           *testing.T
	router      http.Handler
	mem         *db.MemoryStore
	events      *events.Recorder
	authService *auth.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := quietLogger()
	mem := db.NewMemoryStore()
	recorder := &events.Recorder{}
	svc := service.New(mem.Store(), recorder, logger, service.Config{TaxRate: 0.10})
	authService := auth.NewService("test-secret", time.Hour)

	router := NewRouter(RouterConfig{
		Handler:        NewHandler(svc, logger),
		Auth:           NewAuthHandler(authService, mem, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
		RateLimiter:    middleware.NewRateLimitMiddleware(),
		RateLimit:      1000,
		RateWindow:     60,
		Logger:         logger,
	})
	return &testAPI{t: t, router: router, mem: mem, events: recorder, authService: authService}
}

func (a *testAPI) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()
	req := jsonRequest(a.t, method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr.Code, readEnvelope(a.t, rr)
}

// expect performs the request, requires status and decodes data into out.
func (a *testAPI) expect(status int, method, path, token string, body, out interface{}) {
	a.t.Helper()
	code, env := a.do(method, path, token, body)
	require.Equal(a.t, status, code, "%s %s: %s %v", method, path, env.Message, env.Errors)
	if out != nil {
		require.NoError(a.t, json.Unmarshal(env.Data, out))
	}
}

func (a *testAPI) register(username string, role models.Role) (string, string) {
	a.t.Helper()
	var resp models.LoginResponse
	a.expect(http.StatusCreated, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username:     username,
		Email:        username + "@example.com",
		Password:     "password123",
		BusinessName: username,
		Role:         role,
	}, &resp)
	return resp.Token, resp.User.ID.Hex()
}

func (a *testAPI) adminToken() string {
	a.t.Helper()
	admin := models.User{ID: primitive.NewObjectID(), Username: "root", Email: "root@example.com", Role: models.RoleAdmin}
	require.NoError(a.t, a.mem.InsertUser(context.Background(), admin))
	token, err := a.authService.GenerateToken(&admin)
	require.NoError(a.t, err)
	return token
}

func TestRouter_PublicAndProtected(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = api.do(http.MethodGet, "/api/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, _ = api.do(http.MethodGet, "/api/bookings", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	customer, _ := api.register("carla", models.RoleCustomer)
	code, _ = api.do(http.MethodGet, "/api/nowhere", customer, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodGet, "/api/inventory", customer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodGet, "/api/admin/users", customer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	var users []models.User
	api.expect(http.StatusOK, http.MethodGet, "/api/admin/users?role=customer", api.adminToken(), nil, &users)
	assert.Len(t, users, 1)
}

func TestRouter_ErrorMapping(t *testing.T) {
	api := newTestAPI(t)
	customer, _ := api.register("carla", models.RoleCustomer)

	code, env := api.do(http.MethodPost, "/api/vehicles", customer, map[string]interface{}{"make": "Kia"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Contains(t, env.Errors, "vin")

	code, _ = api.do(http.MethodGet, "/api/bookings/"+primitive.NewObjectID().Hex(), customer, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodGet, "/api/bookings/not-an-id", customer, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodPost, "/api/reviews", customer, map[string]interface{}{"booking_id": "x", "rating": 9})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRouter_ServiceLifecycle(t *testing.T) {
	api := newTestAPI(t)
	center, centerID := api.register("quickfix", models.RoleServiceCenter)
	customer, _ := api.register("carla", models.RoleCustomer)
	other, _ := api.register("oscar", models.RoleCustomer)

	var vehicle models.Vehicle
	api.expect(http.StatusCreated, http.MethodPost, "/api/vehicles", customer, service.VehicleInput{
		Make: "Toyota", Model: "Corolla", Year: 2021, VIN: "JTDBR32E720123456", LicensePlate: "AB-123",
	}, &vehicle)

	var mechanic models.TeamMember
	api.expect(http.StatusCreated, http.MethodPost, "/api/team-members", center, service.TeamMemberInput{
		Name: "Mia Mechanic", Role: models.TeamRoleMechanic, HourlyRate: 50,
	}, &mechanic)

	var booking models.Booking
	api.expect(http.StatusCreated, http.MethodPost, "/api/bookings", customer, service.CreateBookingInput{
		VehicleID:       vehicle.ID.Hex(),
		ServiceCenterID: centerID,
		ServiceType:     "Brake service",
		PreferredDate:   time.Now().Add(48 * time.Hour),
	}, &booking)
	assert.Equal(t, models.BookingPending, booking.Status)

	code, _ := api.do(http.MethodGet, "/api/bookings/"+booking.ID.Hex(), other, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodPost, "/api/servicecenter/bookings/"+booking.ID.Hex()+"/approve", customer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	api.expect(http.StatusOK, http.MethodPost, "/api/servicecenter/bookings/"+booking.ID.Hex()+"/approve", center,
		service.ApproveBookingInput{AssignedMechanic: mechanic.ID.Hex()}, &booking)
	assert.Equal(t, models.BookingConfirmed, booking.Status)

	var jc models.JobCard
	api.expect(http.StatusCreated, http.MethodPost, "/api/jobcards", center, service.CreateJobCardInput{BookingID: booking.ID.Hex()}, &jc)
	assert.Equal(t, mechanic.ID.Hex(), jc.AssignedMechanic)
	jobPath := "/api/jobcards/" + jc.ID.Hex()

	code, _ = api.do(http.MethodPost, "/api/jobcards", center, service.CreateJobCardInput{BookingID: booking.ID.Hex()})
	assert.Equal(t, http.StatusConflict, code)

	api.expect(http.StatusOK, http.MethodPost, jobPath+"/start", center, nil, &jc)
	assert.Equal(t, models.JobCardInProgress, jc.Status)

	var item models.Inventory
	api.expect(http.StatusCreated, http.MethodPost, "/api/inventory", center, service.InventoryInput{
		PartName: "Brake pad", SKU: "bp-200", Category: "brakes", CurrentStock: 3, ReorderLevel: 1, UnitPrice: 15,
	}, &item)
	assert.Equal(t, "BP-200", item.SKU)

	code, _ = api.do(http.MethodPost, jobPath+"/add-part", center, service.SparePartInput{InventoryID: item.ID.Hex(), Quantity: 4})
	assert.Equal(t, http.StatusConflict, code)

	api.expect(http.StatusOK, http.MethodPost, jobPath+"/add-part", center, service.SparePartInput{InventoryID: item.ID.Hex(), Quantity: 2}, &jc)
	api.expect(http.StatusOK, http.MethodPost, jobPath+"/labor-tasks", center, service.LaborTaskInput{
		Task: "Replace pads", Hours: 2, HourlyRate: 50, TechnicianID: mechanic.ID.Hex(),
	}, &jc)
	assert.Equal(t, 30.0, jc.TotalPartsCost)
	assert.Equal(t, 100.0, jc.TotalLaborCost)
	assert.Equal(t, 130.0, jc.TotalCost)

	var low []models.Inventory
	api.expect(http.StatusOK, http.MethodGet, "/api/inventory/low-stock", center, nil, &low)
	require.Len(t, low, 1)
	assert.Equal(t, 1, low[0].CurrentStock)

	api.expect(http.StatusOK, http.MethodPost, jobPath+"/communications", customer, service.CommunicationInput{Message: "Any update?"}, &jc)
	api.expect(http.StatusOK, http.MethodPatch, jobPath+"/progress", center, service.ProgressInput{Progress: 80, Message: "Pads fitted"}, &jc)
	api.expect(http.StatusOK, http.MethodPost, jobPath+"/complete", center, nil, &jc)
	assert.Equal(t, models.JobCardCompleted, jc.Status)

	var invoice models.Invoice
	api.expect(http.StatusCreated, http.MethodPost, "/api/invoices", center, service.GenerateInvoiceInput{JobCardID: jc.ID.Hex()}, &invoice)
	assert.Equal(t, 143.0, invoice.TotalAmount)
	invoicePath := "/api/invoices/" + invoice.ID.Hex()

	code, _ = api.do(http.MethodPost, invoicePath+"/process-payment", other, service.PaymentInput{PaymentMethod: "cash"})
	assert.Equal(t, http.StatusForbidden, code)

	api.expect(http.StatusOK, http.MethodPost, invoicePath+"/process-payment", customer, service.PaymentInput{PaymentMethod: "card"}, &invoice)
	assert.Equal(t, models.InvoicePaid, invoice.Status)

	api.expect(http.StatusOK, http.MethodGet, "/api/bookings/"+booking.ID.Hex(), customer, nil, &booking)
	assert.Equal(t, models.BookingPaid, booking.Status)

	api.expect(http.StatusCreated, http.MethodPost, "/api/reviews", customer, service.ReviewInput{BookingID: booking.ID.Hex(), Rating: 5}, nil)
	code, _ = api.do(http.MethodPost, "/api/reviews", customer, service.ReviewInput{BookingID: booking.ID.Hex(), Rating: 4})
	assert.Equal(t, http.StatusConflict, code)

	var report service.PerformanceReport
	api.expect(http.StatusOK, http.MethodGet, "/api/mechanic-performance/"+mechanic.ID.Hex(), center, nil, &report)
	assert.Equal(t, 1, report.CompletedJobs)
	assert.Equal(t, 5.0, report.AvgRating)
	assert.Equal(t, "Mia Mechanic", report.MechanicName)

	var summary service.Summary
	api.expect(http.StatusOK, http.MethodGet, "/api/analytics/summary", center, nil, &summary)
	assert.Equal(t, 1, summary.TotalBookings)
	assert.Equal(t, 143.0, summary.PaidRevenue)
	assert.Equal(t, 1, summary.LowStockItems)

	assert.Contains(t, api.events.Types(), events.InvoicePaid)
}

func TestRouter_StockRequestReview(t *testing.T) {
	api := newTestAPI(t)
	center, _ := api.register("quickfix", models.RoleServiceCenter)
	admin := api.adminToken()

	var item models.Inventory
	api.expect(http.StatusCreated, http.MethodPost, "/api/inventory", center, service.InventoryInput{
		PartName: "Oil filter", SKU: "OF-1", Category: "filters", CurrentStock: 1, ReorderLevel: 2, UnitPrice: 8,
	}, &item)

	var req models.StockRequest
	api.expect(http.StatusCreated, http.MethodPost, "/api/stock-requests", center, service.StockRequestInput{
		InventoryID: item.ID.Hex(), RequestedQuantity: 10, Priority: models.PriorityHigh,
	}, &req)
	statusPath := "/api/stock-requests/" + req.ID.Hex() + "/status"

	code, _ := api.do(http.MethodPatch, statusPath, center, service.StockRequestStatusInput{Status: models.StockRequestApproved})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = api.do(http.MethodPatch, statusPath, admin, service.StockRequestStatusInput{Status: models.StockRequestFulfilled})
	assert.Equal(t, http.StatusConflict, code)

	api.expect(http.StatusOK, http.MethodPatch, statusPath, admin, service.StockRequestStatusInput{Status: models.StockRequestApproved}, &req)
	api.expect(http.StatusOK, http.MethodPatch, statusPath, admin, service.StockRequestStatusInput{Status: models.StockRequestFulfilled}, &req)

	api.expect(http.StatusOK, http.MethodGet, "/api/inventory/"+item.ID.Hex(), center, nil, &item)
	assert.Equal(t, 11, item.CurrentStock)
}
