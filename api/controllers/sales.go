package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/derebetadesse/pharmacloud-backend/api/responses"
	"github.com/derebetadesse/pharmacloud-backend/internal/sales"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
)

// SalesGetPeriod serves one sales period snapshot for the dashboard.
func SalesGetPeriod(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "sales service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetPeriodSnapshot(r.Context(), chi.URLParam(r, "pharmacyId"), chi.URLParam(r, "period"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
