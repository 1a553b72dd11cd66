package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/auth"
	"github.com/ukydev/service-center/internal/config"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/handlers"
	"github.com/ukydev/service-center/internal/middleware"
	"github.com/ukydev/service-center/internal/models"
	"github.com/ukydev/service-center/internal/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// openStore returns the configured store and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, logger log.FieldLogger) (*db.Store, func(), error) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		return db.NewMemoryStore().Store(), func() {}, nil
	}

	client, err := db.ConnectMongo(cfg.MongoURI)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to connect to MongoDB")
	}
	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "failed to create indexes")
	}
	logger.WithFields(log.Fields{"database": cfg.MongoDB, "transactions": cfg.MongoTransactions}).Info("Connected to MongoDB")
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}
	return db.NewMongoStore(database, cfg.MongoTransactions), closeFn, nil
}

// newPublisher connects to MQTT when a broker is configured. A broker that
// cannot be reached downgrades to dropping events.
func newPublisher(cfg *config.Config, logger log.FieldLogger) events.Publisher {
	if cfg.MQTTBroker == "" {
		return events.NopPublisher{}
	}
	pub, err := events.NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
	if err != nil {
		logger.WithError(err).Warn("MQTT unavailable, workflow events will not be published")
		return events.NopPublisher{}
	}
	logger.WithField("broker", cfg.MQTTBroker).Info("Publishing workflow events over MQTT")
	return pub
}

// ensureAdmin provisions the configured admin account if it does not exist.
func ensureAdmin(ctx context.Context, users db.UserCollection, authService *auth.Service, cfg *config.Config, logger log.FieldLogger) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	_, err := users.FindUserByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}
	hash, err := authService.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := models.User{
		ID:           primitive.NewObjectID(),
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := users.InsertUser(ctx, admin); err != nil {
		return errors.Wrap(err, "failed to create admin")
	}
	logger.WithField("username", admin.Username).Info("Created admin account")
	return nil
}

func newServer(cfg *config.Config, store *db.Store, publisher events.Publisher, authService *auth.Service, logger log.FieldLogger) *http.Server {
	svc := service.New(store, publisher, logger, service.Config{TaxRate: cfg.TaxRate})
	router := handlers.NewRouter(handlers.RouterConfig{
		Handler:        handlers.NewHandler(svc, logger),
		Auth:           handlers.NewAuthHandler(authService, store.Users, logger),
		AuthMiddleware: middleware.NewAuthMiddleware(authService),
		RateLimiter:    middleware.NewRateLimitMiddleware(),
		RateLimit:      cfg.RateLimitRequests,
		RateWindow:     cfg.RateLimitWindowSeconds,
		Logger:         logger,
	})
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err := ensureAdmin(ctx, store.Users, authService, cfg, logger); err != nil {
		return err
	}

	srv := newServer(cfg, store, publisher, authService, logger)
	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}
