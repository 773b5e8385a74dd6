package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/derebetadesse/pharmacloud-backend/internal/analytics"
	"github.com/derebetadesse/pharmacloud-backend/internal/pharmacy"
	"github.com/derebetadesse/pharmacloud-backend/internal/sales"
	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
	"github.com/derebetadesse/pharmacloud-backend/pkg/enums"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
	"github.com/derebetadesse/pharmacloud-backend/pkg/metrics"
)

// Receipt acknowledges a stored period payload.
type Receipt struct {
	PharmacyID string `json:"pharmacyId"`
	Period     string `json:"period"`
}

// Service runs the period ingestion pipeline end to end.
type Service interface {
	IngestPeriod(ctx context.Context, pharmacyID, periodToken string, raw []byte, transportHint string) (*Receipt, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pharmacyTxRepository interface {
	WithTx(tx *gorm.DB) pharmacy.Repository
}

type service struct {
	decoder       *Decoder
	analyticsRepo analytics.Repository
	salesRepo     sales.Repository
	pharmacies    pharmacy.Service
	pharmRepo     pharmacyTxRepository
	tx            txRunner
	sync          *metrics.SyncMetrics
	logg          *logger.Logger
	now           func() time.Time
}

// NewService wires the sync orchestrator. The metrics handle may be nil.
func NewService(
	decoder *Decoder,
	analyticsRepo analytics.Repository,
	salesRepo sales.Repository,
	pharmacies pharmacy.Service,
	pharmRepo pharmacyTxRepository,
	tx txRunner,
	sync *metrics.SyncMetrics,
	logg *logger.Logger,
) (Service, error) {
	if decoder == nil {
		return nil, fmt.Errorf("payload decoder required")
	}
	if analyticsRepo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if salesRepo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if pharmacies == nil {
		return nil, fmt.Errorf("pharmacy service required")
	}
	if pharmRepo == nil {
		return nil, fmt.Errorf("pharmacy repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		decoder:       decoder,
		analyticsRepo: analyticsRepo,
		salesRepo:     salesRepo,
		pharmacies:    pharmacies,
		pharmRepo:     pharmRepo,
		tx:            tx,
		sync:          sync,
		logg:          logg,
		now:           time.Now,
	}, nil
}

// IngestPeriod decodes the payload, validates the period token, and stores
// whichever sub-documents are present together with the pharmacy watermark in
// one transaction. Replays overwrite in place; there is no version check.
func (s *service) IngestPeriod(ctx context.Context, pharmacyID, periodToken string, raw []byte, transportHint string) (*Receipt, error) {
	env, err := s.decoder.Decode(raw, transportHint)
	if err != nil {
		s.reject("decode")
		return nil, err
	}

	period, err := enums.ParsePeriod(periodToken)
	if err != nil {
		s.reject("period")
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	ctx = s.logg.WithPeriod(s.logg.WithPharmacyID(ctx, pharmacyID), period.String())

	if env.HintMismatch {
		s.logg.Warn(ctx, "transport hint says gzip but payload has no gzip magic, parsing as plain JSON")
	}

	target, err := s.pharmacies.Resolve(ctx, pharmacyID)
	if err != nil {
		s.reject("pharmacy")
		return nil, err
	}

	uploadedAt, err := resolveUploadedAt(env.UploadedAt, s.now)
	if err != nil {
		s.reject("timestamp")
		return nil, err
	}

	hash := env.Hash
	if hash == "" {
		hash = analytics.HashDocument(env.Body)
	}

	if len(env.Analytics) == 0 {
		s.logg.Warn(ctx, "payload carries no analytics document")
	}
	if len(env.Sales) == 0 {
		s.logg.Warn(ctx, "payload carries no sales document")
	}
	if len(env.Analytics) == 0 && len(env.Sales) == 0 {
		// Nothing to store, so the watermark stays put as well.
		s.logg.Warn(ctx, "payload carries no snapshot documents, nothing stored")
		return &Receipt{PharmacyID: target.ExternalID, Period: period.String()}, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if len(env.Analytics) > 0 {
			snap := &models.AnalyticsPeriodSnapshot{
				ID:         uuid.New(),
				PharmacyID: target.ID,
				Period:     period,
				Data:       env.Analytics,
				Hash:       hash,
				UploadedAt: uploadedAt,
			}
			if err := s.analyticsRepo.WithTx(tx).UpsertPeriod(ctx, snap); err != nil {
				return fmt.Errorf("analytics upsert: %w", err)
			}
		}
		if len(env.Sales) > 0 {
			snap := &models.SalesPeriodSnapshot{
				ID:         uuid.New(),
				PharmacyID: target.ID,
				Period:     period,
				Data:       env.Sales,
				Hash:       hash,
				UploadedAt: uploadedAt,
			}
			if err := s.salesRepo.WithTx(tx).Upsert(ctx, snap); err != nil {
				return fmt.Errorf("sales upsert: %w", err)
			}
		}
		return s.pharmRepo.WithTx(tx).TouchLastUpdated(ctx, target.ID, uploadedAt)
	})
	if err != nil {
		s.reject("storage")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store period payload")
	}

	if s.sync != nil {
		s.sync.IncAccepted(period.String())
		s.sync.ObservePayloadSize(period.String(), len(raw))
	}
	s.logg.Info(ctx, "period payload stored")
	return &Receipt{PharmacyID: target.ExternalID, Period: period.String()}, nil
}

func (s *service) reject(reason string) {
	if s.sync != nil {
		s.sync.IncRejected(reason)
	}
}

// resolveUploadedAt parses the client timestamp, falling back to the server
// clock when the field is absent. A present but malformed value is an error.
func resolveUploadedAt(raw string, now func() time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return now().UTC(), nil
	}
	at, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("uploadedAt %q is not RFC 3339", trimmed))
	}
	return at.UTC(), nil
}
