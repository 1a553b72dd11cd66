package main

import (
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/auth"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/handlers"
	"github.com/ukydev/service-center/internal/middleware"
	"github.com/ukydev/service-center/internal/service"
)

// newTestServer serves the full API over an in-memory store.
func newTestServer(t *testing.T) (*httptest.Server, *events.Recorder) {
	t.Helper()
	logger := log.New()
	logger.SetOutput(io.Discard)
	mem := db.NewMemoryStore()
	recorder := &events.Recorder{}
	authService := auth.NewService("sim-secret", time.Hour)
	svc := service.New(mem.Store(), recorder, logger, service.Config{TaxRate: 0.1})

	router := handlers.NewRouter(handlers.RouterConfig{
		Handler:        handlers.NewHandler(svc, logger),
		Auth:           handlers.NewAuthHandler(authService, mem, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
		Logger:         logger,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, recorder
}

func TestRandomVIN(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		vin := randomVIN(rng)
		assert.Len(t, vin, 17)
		assert.NotContains(t, vin, "I")
		assert.NotContains(t, vin, "O")
		assert.NotContains(t, vin, "Q")
	}
}

func TestClient_ReportsAPIErrors(t *testing.T) {
	server, _ := newTestServer(t)
	c := newClient(server.URL + "/api/")

	err := c.call(http.MethodGet, "/bookings", nil, nil)
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	var health map[string]string
	require.NoError(t, newClient(server.URL).call(http.MethodGet, "/health", nil, &health))
	assert.Equal(t, "ok", health["status"])
}

func TestSimulator_RunsFullVisits(t *testing.T) {
	server, recorder := newTestServer(t)
	sim, err := Setup(server.URL+"/api", rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	assert.NotEmpty(t, sim.centerID)
	assert.NotEmpty(t, sim.mechanic)

	for i := 0; i < 3; i++ {
		result, err := sim.Visit()
		require.NoError(t, err)
		assert.NotEmpty(t, result.InvoiceID)
		assert.Greater(t, result.Total, 0.0)
		assert.GreaterOrEqual(t, result.Rating, 3)
		assert.LessOrEqual(t, result.Rating, 5)
	}

	paid := 0
	for _, typ := range recorder.Types() {
		if typ == events.InvoicePaid {
			paid++
		}
	}
	assert.Equal(t, 3, paid)

	var perf struct {
		CompletedJobs int `json:"completed_jobs"`
		TotalRatings  int `json:"total_ratings"`
	}
	require.NoError(t, sim.center.call(http.MethodGet, "/mechanic-performance/"+sim.mechanic, nil, &perf))
	assert.Equal(t, 3, perf.CompletedJobs)
	assert.Equal(t, 3, perf.TotalRatings)
}

func TestSetup_UnreachableAPI(t *testing.T) {
	_, err := Setup("http://127.0.0.1:1/api", rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}
