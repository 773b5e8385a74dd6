package main

import (
	"context"
	"net/http"
	"os"

	"github.com/derebetadesse/pharmacloud-backend/api/routes"
	"github.com/derebetadesse/pharmacloud-backend/internal/analytics"
	"github.com/derebetadesse/pharmacloud-backend/internal/auth"
	"github.com/derebetadesse/pharmacloud-backend/internal/pharmacy"
	"github.com/derebetadesse/pharmacloud-backend/internal/sales"
	syncsvc "github.com/derebetadesse/pharmacloud-backend/internal/sync"
	"github.com/derebetadesse/pharmacloud-backend/pkg/auth/session"
	"github.com/derebetadesse/pharmacloud-backend/pkg/config"
	"github.com/derebetadesse/pharmacloud-backend/pkg/db"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
	"github.com/derebetadesse/pharmacloud-backend/pkg/metrics"
	"github.com/derebetadesse/pharmacloud-backend/pkg/migrate"
	"github.com/derebetadesse/pharmacloud-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	pharmacyRepo := pharmacy.NewRepository(dbClient.DB())
	pharmacyService, err := pharmacy.NewService(pharmacyRepo, cfg.Pharmacy)
	if err != nil {
		logg.Error(context.Background(), "failed to create pharmacy service", err)
		os.Exit(1)
	}

	analyticsRepo := analytics.NewRepository(dbClient.DB())
	analyticsService, err := analytics.NewService(analyticsRepo, pharmacyService, pharmacyRepo, dbClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create analytics service", err)
		os.Exit(1)
	}

	salesRepo := sales.NewRepository(dbClient.DB())
	salesService, err := sales.NewService(salesRepo, pharmacyService)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	syncService, err := syncsvc.NewService(
		syncsvc.NewDecoder(cfg.Sync),
		analyticsRepo,
		salesRepo,
		pharmacyService,
		pharmacyRepo,
		dbClient,
		syncMetrics,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		OwnerRepo:      auth.NewRepository(dbClient.DB()),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			RedisPinger:     redisClient,
			RateLimitStore:  redisClient,
			SessionChecker:  sessionManager,
			MetricsGatherer: registry,
			PharmacyService: pharmacyService,
			AnalyticsSvc:    analyticsService,
			SalesSvc:        salesService,
			SyncSvc:         syncService,
			AuthSvc:         authService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
