package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/middleware"
	"github.com/ukydev/service-center/internal/models"
)

// RouterConfig carries the collaborators of NewRouter.
type RouterConfig struct {
	Handler        *Handler
	Auth           *AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimitMiddleware
	RateLimit      int
	RateWindow     int
	Logger         log.FieldLogger
}

// NewRouter mounts every route under the API's middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = log.StandardLogger()
	}
	h := cfg.Handler
	am := cfg.AuthMiddleware
	center := am.RequireRole(models.RoleServiceCenter)
	admin := am.RequireRole(models.RoleAdmin)

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.RateLimit(cfg.RateLimit, cfg.RateWindow))
	}
	r.Use(am.Authenticate)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, Response{Message: "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Response{Message: "Method not allowed"})
	})

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.Auth.Register)
			r.Post("/login", cfg.Auth.Login)
			r.Get("/profile", cfg.Auth.GetProfile)
			r.Put("/profile", cfg.Auth.UpdateProfile)
			r.Post("/change-password", cfg.Auth.ChangePassword)
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Use(am.RequirePermission("manage_vehicles"))
			r.Post("/", h.CreateVehicle)
			r.Get("/", h.ListVehicles)
			r.Get("/{id}", h.GetVehicle)
			r.Put("/{id}", h.UpdateVehicle)
			r.Delete("/{id}", h.DeleteVehicle)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.With(am.RequirePermission("create_booking")).Post("/", h.CreateBooking)
			r.Get("/", h.ListBookings)
			r.Get("/{id}", h.GetBooking)
			r.Post("/{id}/cancel", h.CancelBooking)
		})

		r.Route("/servicecenter/bookings/{id}", func(r chi.Router) {
			r.Use(center)
			r.Patch("/", h.UpdateBooking)
			r.Post("/approve", h.ApproveBooking)
		})

		r.Route("/jobcards", func(r chi.Router) {
			r.Get("/", h.ListJobCards)
			r.Get("/{id}", h.GetJobCard)
			r.Post("/{id}/communications", h.AddCommunication)

			r.Group(func(r chi.Router) {
				r.Use(center)
				r.Post("/", h.CreateJobCard)
				r.Post("/{id}/start", h.StartService)
				r.Post("/{id}/complete", h.CompleteService)
				r.Patch("/{id}/progress", h.UpdateProgress)
				r.Post("/{id}/add-part", h.AddSparePart)
				r.Delete("/{id}/parts/{partId}", h.RemoveSparePart)
				r.Post("/{id}/labor-tasks", h.AddLaborTask)
				r.Delete("/{id}/labor-tasks/{taskId}", h.RemoveLaborTask)
				r.Post("/{id}/labor-tasks/{taskId}/clock-in", h.ClockIn)
				r.Post("/{id}/labor-tasks/{taskId}/clock-out", h.ClockOut)
				r.Post("/{id}/labor-tasks/{taskId}/complete", h.CompleteLaborTask)
				r.Post("/{id}/inspection-photos", h.AddInspectionPhoto)
			})
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Get("/{id}", h.GetInvoice)
			r.With(am.RequirePermission("pay_invoice")).Post("/{id}/process-payment", h.ProcessPayment)

			r.Group(func(r chi.Router) {
				r.Use(center)
				r.Post("/", h.GenerateInvoice)
				r.Post("/{id}/payment-failed", h.RecordPaymentFailure)
				r.Post("/{id}/reopen", h.ReopenInvoice)
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Use(center)
			r.Post("/", h.CreateInventoryItem)
			r.Get("/", h.ListInventory)
			r.Get("/low-stock", h.ListLowStock)
			r.Get("/{id}", h.GetInventoryItem)
			r.Post("/{id}/use", h.UseInventoryItem)
		})

		r.Route("/stock-requests", func(r chi.Router) {
			r.With(center).Post("/", h.CreateStockRequest)
			r.With(center).Get("/", h.ListStockRequests)
			r.With(am.RequirePermission("review_stock_requests")).Patch("/{id}/status", h.UpdateStockRequestStatus)
		})

		r.Route("/team-members", func(r chi.Router) {
			r.Use(center)
			r.Post("/", h.CreateTeamMember)
			r.Get("/", h.ListTeamMembers)
			r.Patch("/{id}/status", h.SetTeamMemberStatus)
		})

		r.Route("/mechanic-performance", func(r chi.Router) {
			r.Use(center)
			r.Get("/", h.ListMechanicPerformance)
			r.Get("/{mechanicId}", h.GetMechanicPerformance)
		})

		r.Route("/reviews", func(r chi.Router) {
			r.With(am.RequirePermission("create_review")).Post("/", h.CreateReview)
			r.Get("/", h.ListReviews)
		})

		r.With(center).Get("/analytics/summary", h.Summary)
		r.With(admin).Get("/admin/users", cfg.Auth.ListUsers)
	})

	return r
}
