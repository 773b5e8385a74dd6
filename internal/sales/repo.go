package sales

import (
	"context"

	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
	"github.com/derebetadesse/pharmacloud-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines persistence operations for period-keyed sales snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, snap *models.SalesPeriodSnapshot) error
	GetPeriod(ctx context.Context, pharmacyID uuid.UUID, period enums.Period) (*models.SalesPeriodSnapshot, error)
	GetLatestPeriod(ctx context.Context, pharmacyID uuid.UUID) (*models.SalesPeriodSnapshot, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a sales repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert writes last-writer-wins over the (pharmacy, period) key.
func (r *repository) Upsert(ctx context.Context, snap *models.SalesPeriodSnapshot) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pharmacy_id"}, {Name: "period"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "hash", "uploaded_at", "updated_at"}),
		}).
		Create(snap).Error
}

func (r *repository) GetPeriod(ctx context.Context, pharmacyID uuid.UUID, period enums.Period) (*models.SalesPeriodSnapshot, error) {
	var row models.SalesPeriodSnapshot
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ? AND period = ?", pharmacyID, period).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetLatestPeriod returns the sales snapshot with the newest uploaded_at.
func (r *repository) GetLatestPeriod(ctx context.Context, pharmacyID uuid.UUID) (*models.SalesPeriodSnapshot, error) {
	var row models.SalesPeriodSnapshot
	err := r.db.WithContext(ctx).
		Where("pharmacy_id = ?", pharmacyID).
		Order("uploaded_at DESC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
