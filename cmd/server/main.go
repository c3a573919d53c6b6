package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"rideshare/internal/ai"
	"rideshare/internal/app"
	"rideshare/internal/config"
	"rideshare/internal/handler"
	internalredis "rideshare/internal/redis"
	"rideshare/internal/repository"
	"rideshare/internal/repository/memory"
	"rideshare/internal/repository/postgres"
	"rideshare/internal/service"
)

func main() {
	cfg := config.Load()
	log := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic first so the database and Redis can be instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	locationStore := internalredis.NewLocationStore(redisClient)

	rideRepo, userRepo, err := buildRepositories(ctx, cfg, nrApp, locationStore, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize storage")
	}

	server, dispatcher := wireServer(cfg, rideRepo, userRepo, locationStore, redisClient, nrApp, log)

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	dispatcher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}

// buildRepositories selects the storage backend. The default in-memory
// stores are seeded with the demo dataset, including the driver geo index.
func buildRepositories(
	ctx context.Context,
	cfg *config.Config,
	nrApp *newrelic.Application,
	locationStore *internalredis.LocationStore,
	log *logrus.Logger,
) (repository.RideRepository, repository.UserRepository, error) {
	if cfg.Storage.Driver == "postgres" {
		db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
		if err != nil {
			return nil, nil, err
		}
		log.Info("connected to PostgreSQL")
		return postgres.NewRideRepository(db), postgres.NewUserRepository(db), nil
	}

	rides := memory.NewRideStore()
	users := memory.NewUserStore()
	if err := memory.Seed(users, rides); err != nil {
		return nil, nil, err
	}
	for driverID, pos := range memory.DemoDriverLocations() {
		if err := locationStore.UpdateLocation(ctx, driverID, pos[0], pos[1]); err != nil {
			log.WithError(err).WithField("driver_id", driverID).Warn("failed to seed driver location")
		}
	}
	log.Info("seeded in-memory stores")

	return rides, users, nil
}

// wireServer wires all dependencies and returns the HTTP server plus the
// dispatcher so shutdown can stop pending timers.
func wireServer(
	cfg *config.Config,
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	locationStore *internalredis.LocationStore,
	redisClient *goredis.Client,
	nrApp *newrelic.Application,
	log *logrus.Logger,
) (*http.Server, *service.Dispatcher) {
	lockStore := internalredis.NewLockStore(redisClient)
	quoteStore := internalredis.NewQuoteStore(redisClient, cfg.Dispatch.QuoteTTL)
	responseCache := internalredis.NewResponseCache(redisClient, 24*time.Hour)

	var surge service.SurgePolicy
	if cfg.Dispatch.SurgeMode == "demand" {
		surge = service.NewSupplyDemandSurgePolicy(rideRepo, locationStore, cfg.Dispatch.SearchRadiusKm)
	} else {
		surge = service.NewRandomSurgePolicy()
	}

	notifier := service.NewNotificationService(log)
	dispatcher := service.NewDispatcher(
		rideRepo, locationStore, lockStore, notifier,
		cfg.Dispatch.MinAcceptDelay, cfg.Dispatch.MaxAcceptDelay,
		cfg.Dispatch.SearchRadiusKm,
		[]string{"2"}, // seeded demo driver
		log,
	)

	rideService := service.NewRideService(
		rideRepo, quoteStore, locationStore, surge, dispatcher, notifier,
		cfg.Dispatch.SearchRadiusKm, log,
	)
	authService := service.NewAuthService(userRepo, cfg.JWT, log)
	driverService := service.NewDriverService(userRepo, locationStore, log)
	aiClient := ai.NewClient(cfg.AI, log)

	router := app.NewRouter(app.RouterDeps{
		AuthHandler:   handler.NewAuthHandler(authService),
		RideHandler:   handler.NewRideHandler(rideService),
		DriverHandler: handler.NewDriverHandler(driverService, cfg.Dispatch.SearchRadiusKm),
		AIHandler:     handler.NewAIHandler(aiClient),
		AuthService:   authService,
		ResponseCache: responseCache,
		NewRelicApp:   nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, dispatcher
}
