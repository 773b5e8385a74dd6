package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/derebetadesse/pharmacloud-backend/api/responses"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
	"github.com/derebetadesse/pharmacloud-backend/pkg/security"
)

const apiKeyHeader = "X-Api-Key"

// PharmacyCredentialFinder resolves a pharmacy's stored API key hash by its external id.
type PharmacyCredentialFinder interface {
	FindCredential(ctx context.Context, pharmacyID string) (apiKeyHash string, err error)
}

// APIKey authenticates machine clients via the x-api-key header against the
// pharmacy addressed in the path. The failure message never reveals whether
// the id or the key was wrong.
func APIKey(finder PharmacyCredentialFinder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			pharmacyID := strings.TrimSpace(chi.URLParam(r, "pharmacyId"))
			key := strings.TrimSpace(r.Header.Get(apiKeyHeader))
			if pharmacyID == "" || key == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
				return
			}

			hash, err := finder.FindCredential(ctx, pharmacyID)
			if err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
					return
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve credentials"))
				return
			}

			ok, err := security.VerifySecret(key, hash)
			if err != nil || !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
				return
			}

			ctx = WithPharmacyID(ctx, pharmacyID)
			if logg != nil {
				ctx = logg.WithPharmacyID(ctx, pharmacyID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
