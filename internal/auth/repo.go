package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
)

// Repository defines persistence operations for owner accounts.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, owner *models.Owner) (*models.Owner, error)
	FindByUsername(ctx context.Context, username string) (*models.Owner, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Owner, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Save(ctx context.Context, owner *models.Owner) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an owner repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, owner *models.Owner) (*models.Owner, error) {
	if err := r.db.WithContext(ctx).Create(owner).Error; err != nil {
		return nil, err
	}
	return owner, nil
}

func (r *repository) FindByUsername(ctx context.Context, username string) (*models.Owner, error) {
	var owner models.Owner
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&owner).Error
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	var owner models.Owner
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&owner).Error
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

func (r *repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Owner{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

// Save persists the full owner row, used by account updates.
func (r *repository) Save(ctx context.Context, owner *models.Owner) error {
	return r.db.WithContext(ctx).Save(owner).Error
}
