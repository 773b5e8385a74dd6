package analytics

import (
	"context"

	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
	"github.com/derebetadesse/pharmacloud-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines persistence operations for analytics snapshots, both the
// period-keyed table and the legacy single-row-per-pharmacy table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertPeriod(ctx context.Context, snap *models.AnalyticsPeriodSnapshot) error
	GetPeriod(ctx context.Context, pharmacyID uuid.UUID, period enums.Period) (*models.AnalyticsPeriodSnapshot, error)
	GetLatestPeriod(ctx context.Context, pharmacyID uuid.UUID) (*models.AnalyticsPeriodSnapshot, error)
	UpsertLegacy(ctx context.Context, snap *models.AnalyticsSnapshot) error
	GetLegacy(ctx context.Context, pharmacyID uuid.UUID) (*models.AnalyticsSnapshot, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an analytics repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// UpsertPeriod writes last-writer-wins over the (pharmacy, period) key.
func (r *repository) UpsertPeriod(ctx context.Context, snap *models.AnalyticsPeriodSnapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pharmacy_id"}, {Name: "period"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "hash", "uploaded_at", "updated_at"}),
		}).
		Create(snap).Error
}

func (r *repository) GetPeriod(ctx context.Context, pharmacyID uuid.UUID, period enums.Period) (*models.AnalyticsPeriodSnapshot, error) {
	var row models.AnalyticsPeriodSnapshot
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND period = ?", pharmacyID, period).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetLatestPeriod returns the period snapshot with the newest uploaded_at.
func (r *repository) GetLatestPeriod(ctx context.Context, pharmacyID uuid.UUID) (*models.AnalyticsPeriodSnapshot, error) {
	var row models.AnalyticsPeriodSnapshot
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		Order("uploaded_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) UpsertLegacy(ctx context.Context, snap *models.AnalyticsSnapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pharmacy_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "hash", "uploaded_at", "updated_at"}),
		}).
		Create(snap).Error
}

func (r *repository) GetLegacy(ctx context.Context, pharmacyID uuid.UUID) (*models.AnalyticsSnapshot, error) {
	var row models.AnalyticsSnapshot
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
