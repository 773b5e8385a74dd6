package controllers

import (
	"net/http"

	"github.com/derebetadesse/pharmacloud-backend/api/responses"
	"github.com/derebetadesse/pharmacloud-backend/internal/pharmacy"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
)

// PharmacyLastUpdated reports when the default pharmacy last synced.
func PharmacyLastUpdated(svc pharmacy.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "pharmacy service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.LastUpdated(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
