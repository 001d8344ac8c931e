package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"swiftride/internal/app"
	"swiftride/internal/cache"
	"swiftride/internal/config"
	"swiftride/internal/handler"
	"swiftride/internal/idempotency"
	"swiftride/internal/maps"
	"swiftride/internal/notify"
	"swiftride/internal/repository/postgres"
	"swiftride/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
			nrApp = nil
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	router, err := maps.NewGoogleRouter(cfg.Maps.APIKey)
	if err != nil {
		logger.Fatal("failed to initialize maps client", zap.Error(err))
	}

	hub := notify.NewHub(logger)
	dispatcher := notify.NewDispatcher(hub, cfg.Notify.BufferSize, logger)

	server := wireServer(db, redisClient, router, hub, dispatcher, nrApp, cfg, logger)

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	dispatcher.Close()
	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	db *sql.DB,
	redisClient *redis.Client,
	router maps.Router,
	hub *notify.Hub,
	dispatcher *notify.Dispatcher,
	nrApp *newrelic.Application,
	cfg *config.Config,
	logger *zap.Logger,
) *http.Server {
	store := cache.NewRedisStore(redisClient, cfg, logger)

	// Repositories.
	userRepo := postgres.NewUserRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	txManager := postgres.NewTxManager(db)

	// Services.
	fares := service.NewFareCalculator(cfg.Pricing)
	surgeService := service.NewSurgeService(rideRepo, driverRepo, store, cfg.Surge, logger)
	matchingService := service.NewMatchingService(driverRepo, store, cfg.Matching)
	rideService := service.NewRideService(rideRepo, matchingService, fares, router, dispatcher, logger)
	tripService := service.NewTripService(
		txManager, rideRepo, tripRepo,
		surgeService, fares, router, store, dispatcher, logger,
	)
	driverService := service.NewDriverService(driverRepo, tripRepo, rideRepo, store, dispatcher, logger)
	paymentService := service.NewPaymentService(paymentRepo, tripRepo, rideRepo, service.StubPSP{}, dispatcher, logger)
	userService := service.NewUserService(userRepo)

	coordinator := idempotency.NewCoordinator(store)

	// Handlers.
	userHandler := handler.NewUserHandler(userService)
	rideHandler := handler.NewRideHandler(rideService)
	driverHandler := handler.NewDriverHandler(driverService, matchingService)
	tripHandler := handler.NewTripHandler(tripService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	wsHandler := handler.NewWSHandler(hub, logger)

	engine := app.NewRouter(app.RouterDeps{
		UserHandler:    userHandler,
		RideHandler:    rideHandler,
		DriverHandler:  driverHandler,
		TripHandler:    tripHandler,
		PaymentHandler: paymentHandler,
		WSHandler:      wsHandler,
		Idempotency:    coordinator,
		NewRelicApp:    nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
