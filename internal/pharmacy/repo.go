package pharmacy

import (
	"context"
	"time"

	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the pharmacy directory.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, pharmacy *models.Pharmacy) (*models.Pharmacy, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Pharmacy, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Pharmacy, error)
	FindFirstActive(ctx context.Context) (*models.Pharmacy, error)
	ListActive(ctx context.Context) ([]models.Pharmacy, error)
	TouchLastUpdated(ctx context.Context, id uuid.UUID, at time.Time) error
	SetLastUpdated(ctx context.Context, id uuid.UUID, at *time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a pharmacy repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, pharmacy *models.Pharmacy) (*models.Pharmacy, error) {
	if err := r.db.WithContext(ctx).Create(pharmacy).Error; err != nil {
		return nil, err
	}
	return pharmacy, nil
}

func (r *repository) FindByExternalID(ctx context.Context, externalID string) (*models.Pharmacy, error) {
	var row models.Pharmacy
	err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Pharmacy, error) {
	var row models.Pharmacy
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindFirstActive(ctx context.Context) (*models.Pharmacy, error) {
	var row models.Pharmacy
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.Pharmacy, error) {
	var rows []models.Pharmacy
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TouchLastUpdated advances last_updated_at, never moving it backwards.
func (r *repository) TouchLastUpdated(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Pharmacy{}).
		Where("id = ? AND (last_updated_at IS NULL OR last_updated_at < ?)", id, at).
		Update("last_updated_at", at).Error
}

// SetLastUpdated overwrites last_updated_at unconditionally, used by reconciliation.
func (r *repository) SetLastUpdated(ctx context.Context, id uuid.UUID, at *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Pharmacy{}).
		Where("id = ?", id).
		Update("last_updated_at", at).Error
}
