package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/derebetadesse/pharmacloud-backend/api/responses"
	"github.com/derebetadesse/pharmacloud-backend/api/validators"
	syncsvc "github.com/derebetadesse/pharmacloud-backend/internal/sync"
	"github.com/derebetadesse/pharmacloud-backend/pkg/config"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
)

// SyncPeriod accepts a raw period payload from a pharmacy-side agent. The
// body passes through untouched; gzip detection happens in the decoder, so
// the Content-Encoding header is only a hint.
func SyncPeriod(svc syncsvc.Service, cfg config.SyncConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "sync service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		maxBody := cfg.MaxBodyBytes
		if maxBody <= 0 {
			maxBody = 10 << 20
		}
		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				err = pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body exceeds the configured limit")
			} else {
				err = pkgerrors.Wrap(pkgerrors.CodeValidation, err, "failed to read request body")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.IngestPeriod(
			r.Context(),
			validators.SanitizeString(chi.URLParam(r, "pharmacyId"), 128),
			validators.SanitizeString(chi.URLParam(r, "period"), 32),
			raw,
			r.Header.Get("Content-Encoding"),
		)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, receipt)
	}
}
