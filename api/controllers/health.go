package controllers

import (
	"context"
	"net/http"

	"go.uber.org/multierr"

	"github.com/derebetadesse/pharmacloud-backend/api/responses"
	"github.com/derebetadesse/pharmacloud-backend/pkg/config"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PharmaCloud-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and redis before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PharmaCloud-Env", cfg.App.Env)

		var errs error
		for _, dep := range deps {
			if dep == nil {
				continue
			}
			errs = multierr.Append(errs, dep.Ping(r.Context()))
		}
		if errs != nil {
			err := pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependencies unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
