package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/derebetadesse/pharmacloud-backend/pkg/config"
	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type directoryRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.Pharmacy, error)
	FindFirstActive(ctx context.Context) (*models.Pharmacy, error)
	TouchLastUpdated(ctx context.Context, id uuid.UUID, at time.Time) error
}

// LastUpdatedDTO reports when a pharmacy last pushed data.
type LastUpdatedDTO struct {
	PharmacyID    string     `json:"pharmacyId"`
	Name          string     `json:"name"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt"`
}

// Service exposes pharmacy directory operations.
type Service interface {
	FindCredential(ctx context.Context, pharmacyID string) (string, error)
	Resolve(ctx context.Context, pharmacyID string) (*models.Pharmacy, error)
	ResolveDefault(ctx context.Context) (*models.Pharmacy, error)
	LastUpdated(ctx context.Context) (*LastUpdatedDTO, error)
}

type service struct {
	repo directoryRepository
	cfg  config.PharmacyConfig
}

// NewService builds a pharmacy directory service.
func NewService(repo directoryRepository, cfg config.PharmacyConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("pharmacy repository required")
	}
	return &service{repo: repo, cfg: cfg}, nil
}

// FindCredential returns the stored API key hash for the addressed pharmacy.
// Inactive pharmacies authenticate like unknown ones.
func (s *service) FindCredential(ctx context.Context, pharmacyID string) (string, error) {
	row, err := s.Resolve(ctx, pharmacyID)
	if err != nil {
		return "", err
	}
	if !row.IsActive {
		return "", pkgerrors.New(pkgerrors.CodeNotFound, "pharmacy not found")
	}
	return row.APIKeyHash, nil
}

func (s *service) Resolve(ctx context.Context, pharmacyID string) (*models.Pharmacy, error) {
	id := strings.TrimSpace(pharmacyID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pharmacy id is required")
	}
	row, err := s.repo.FindByExternalID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pharmacy not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup pharmacy")
	}
	return row, nil
}

// ResolveDefault returns the configured pharmacy, falling back to the first
// active one when no id is configured.
func (s *service) ResolveDefault(ctx context.Context) (*models.Pharmacy, error) {
	if id := strings.TrimSpace(s.cfg.DefaultPharmacyID); id != "" {
		return s.Resolve(ctx, id)
	}
	row, err := s.repo.FindFirstActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pharmacies registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup pharmacy")
	}
	return row, nil
}

func (s *service) LastUpdated(ctx context.Context) (*LastUpdatedDTO, error) {
	row, err := s.ResolveDefault(ctx)
	if err != nil {
		return nil, err
	}
	return &LastUpdatedDTO{
		PharmacyID:    row.ExternalID,
		Name:          row.Name,
		LastUpdatedAt: row.LastUpdatedAt,
	}, nil
}
