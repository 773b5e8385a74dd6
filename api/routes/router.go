package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/derebetadesse/pharmacloud-backend/api/controllers"
	"github.com/derebetadesse/pharmacloud-backend/api/middleware"
	"github.com/derebetadesse/pharmacloud-backend/internal/analytics"
	"github.com/derebetadesse/pharmacloud-backend/internal/auth"
	"github.com/derebetadesse/pharmacloud-backend/internal/pharmacy"
	"github.com/derebetadesse/pharmacloud-backend/internal/sales"
	syncsvc "github.com/derebetadesse/pharmacloud-backend/internal/sync"
	"github.com/derebetadesse/pharmacloud-backend/pkg/auth/session"
	"github.com/derebetadesse/pharmacloud-backend/pkg/config"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
)

// RouterParams bundle everything the HTTP surface needs.
type RouterParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	DBPinger        controllers.Pinger
	RedisPinger     controllers.Pinger
	RateLimitStore  middleware.RateLimiterStore
	SessionChecker  session.AccessSessionChecker
	MetricsGatherer prometheus.Gatherer
	PharmacyService pharmacy.Service
	AnalyticsSvc    analytics.Service
	SalesSvc        sales.Service
	SyncSvc         syncsvc.Service
	AuthSvc         auth.Service
}

// NewRouter wires middleware, guards, and controllers into the API handler.
func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.RedisPinger))
	})

	if p.MetricsGatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	r.Route("/api", func(r chi.Router) {
		// Machine-facing ingestion, guarded by per-pharmacy API keys.
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKey(p.PharmacyService, logg))
			r.Post("/sync/period/{pharmacyId}/{period}", controllers.SyncPeriod(p.SyncSvc, cfg.Sync, logg))
			r.Post("/analytics/{pharmacyId}", controllers.AnalyticsIngest(p.AnalyticsSvc, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, p.RateLimitStore, logg)).
				Post("/login", controllers.AuthLogin(p.AuthSvc, logg))
			r.Post("/refresh", controllers.AuthRefresh(p.AuthSvc, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, p.SessionChecker, logg))
				r.Post("/logout", controllers.AuthLogout(p.AuthSvc, logg))
				r.Put("/account", controllers.AuthAccountUpdate(p.AuthSvc, logg))
			})
		})

		// Dashboard reads, guarded by owner JWTs.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.SessionChecker, logg))
			r.Get("/analytics/{pharmacyId}/{period}", controllers.AnalyticsGetPeriod(p.AnalyticsSvc, logg))
			r.Get("/sales/{pharmacyId}/{period}", controllers.SalesGetPeriod(p.SalesSvc, logg))
			r.Get("/pharmacy/analytics/latest", controllers.AnalyticsLatest(p.AnalyticsSvc, logg))
			r.Get("/pharmacy/analytics/last-updated", controllers.PharmacyLastUpdated(p.PharmacyService, logg))
		})
	})

	return r
}
