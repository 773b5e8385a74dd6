package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
)

const watermarkReconcileJobName = "watermark_reconcile"

type pharmacyDirectory interface {
	ListActive(ctx context.Context) ([]models.Pharmacy, error)
	SetLastUpdated(ctx context.Context, id uuid.UUID, at *time.Time) error
}

type analyticsWatermarkReader interface {
	GetLatestPeriod(ctx context.Context, pharmacyID uuid.UUID) (*models.AnalyticsPeriodSnapshot, error)
	GetLegacy(ctx context.Context, pharmacyID uuid.UUID) (*models.AnalyticsSnapshot, error)
}

type salesWatermarkReader interface {
	GetLatestPeriod(ctx context.Context, pharmacyID uuid.UUID) (*models.SalesPeriodSnapshot, error)
}

// WatermarkReconcileJobParams configure the watermark healer.
type WatermarkReconcileJobParams struct {
	Logger     *logger.Logger
	Pharmacies pharmacyDirectory
	Analytics  analyticsWatermarkReader
	Sales      salesWatermarkReader
}

// watermarkReconcileJob recomputes each pharmacy's last_updated_at from the
// stored snapshots. Ingestion keeps the watermark current on the happy path;
// this job heals the drift left behind by partial failures or manual edits.
type watermarkReconcileJob struct {
	logg       *logger.Logger
	pharmacies pharmacyDirectory
	analytics  analyticsWatermarkReader
	sales      salesWatermarkReader
}

// NewWatermarkReconcileJob builds the cron job that reconciles pharmacy
// last-updated watermarks with the snapshot tables.
func NewWatermarkReconcileJob(params WatermarkReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Pharmacies == nil {
		return nil, fmt.Errorf("pharmacy repository required")
	}
	if params.Analytics == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if params.Sales == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	return &watermarkReconcileJob{
		logg:       params.Logger,
		pharmacies: params.Pharmacies,
		analytics:  params.Analytics,
		sales:      params.Sales,
	}, nil
}

func (j *watermarkReconcileJob) Name() string {
	return watermarkReconcileJobName
}

func (j *watermarkReconcileJob) Run(ctx context.Context) error {
	pharmacies, err := j.pharmacies.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list pharmacies: %w", err)
	}

	var errs error
	for _, pharmacy := range pharmacies {
		if err := j.reconcile(ctx, pharmacy); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("pharmacy %s: %w", pharmacy.ExternalID, err))
		}
	}
	return errs
}

func (j *watermarkReconcileJob) reconcile(ctx context.Context, pharmacy models.Pharmacy) error {
	watermark, err := j.maxUploadedAt(ctx, pharmacy.ID)
	if err != nil {
		return err
	}

	if equalWatermarks(pharmacy.LastUpdatedAt, watermark) {
		return nil
	}

	jobCtx := j.logg.WithPharmacyID(ctx, pharmacy.ExternalID)
	j.logg.Warn(jobCtx, "pharmacy watermark out of sync with snapshots, healing")
	if err := j.pharmacies.SetLastUpdated(ctx, pharmacy.ID, watermark); err != nil {
		return fmt.Errorf("set last updated: %w", err)
	}
	return nil
}

// maxUploadedAt scans the three snapshot tables and returns the newest
// uploaded_at, or nil when the pharmacy has no snapshots at all.
func (j *watermarkReconcileJob) maxUploadedAt(ctx context.Context, pharmacyID uuid.UUID) (*time.Time, error) {
	var max *time.Time
	take := func(at time.Time) {
		if max == nil || at.After(*max) {
			utc := at.UTC()
			max = &utc
		}
	}

	if row, err := j.analytics.GetLatestPeriod(ctx, pharmacyID); err == nil {
		take(row.UploadedAt)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("analytics period watermark: %w", err)
	}

	if row, err := j.analytics.GetLegacy(ctx, pharmacyID); err == nil {
		take(row.UploadedAt)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("legacy analytics watermark: %w", err)
	}

	if row, err := j.sales.GetLatestPeriod(ctx, pharmacyID); err == nil {
		take(row.UploadedAt)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("sales watermark: %w", err)
	}

	return max, nil
}

func equalWatermarks(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
