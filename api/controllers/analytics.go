package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/derebetadesse/pharmacloud-backend/api/responses"
	"github.com/derebetadesse/pharmacloud-backend/api/validators"
	"github.com/derebetadesse/pharmacloud-backend/internal/analytics"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
	"github.com/derebetadesse/pharmacloud-backend/pkg/types"
)

// legacySnapshotRequest is the non-period ingestion DTO kept for older
// pharmacy agents.
type legacySnapshotRequest struct {
	Analytics  types.Document `json:"analytics" validate:"required"`
	Hash       string         `json:"hash"`
	UploadedAt string         `json:"uploadedAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// AnalyticsIngest stores a legacy full-snapshot upload.
func AnalyticsIngest(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body legacySnapshotRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateOrUpdateSnapshot(r.Context(), chi.URLParam(r, "pharmacyId"), analytics.LegacySnapshotInput{
			Analytics:  body.Analytics,
			Hash:       body.Hash,
			UploadedAt: body.UploadedAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AnalyticsGetPeriod serves one period snapshot for the dashboard.
func AnalyticsGetPeriod(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable")
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

// AnalyticsLatest serves the freshest analytics for the default pharmacy.
func AnalyticsLatest(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetLatest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
