package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/derebetadesse/pharmacloud-backend/internal/pharmacy"
	"github.com/derebetadesse/pharmacloud-backend/pkg/enums"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
)

// SnapshotDTO is the API-facing shape of a stored sales snapshot.
type SnapshotDTO struct {
	PharmacyID    string          `json:"pharmacyId"`
	PharmacyName  string          `json:"pharmacyName,omitempty"`
	Period        string          `json:"period,omitempty"`
	Data          json.RawMessage `json:"data"`
	Hash          string          `json:"hash"`
	UploadedAt    time.Time       `json:"uploadedAt"`
	StoredAt      time.Time       `json:"storedAt"`
	LastUpdatedAt *time.Time      `json:"lastUpdatedAt,omitempty"`
}

// Service exposes read access to sales snapshots. Writes flow through the
// sync pipeline so both snapshot kinds share one transaction.
type Service interface {
	GetPeriodSnapshot(ctx context.Context, pharmacyID, periodToken string) (*SnapshotDTO, error)
}

type service struct {
	repo       Repository
	pharmacies pharmacy.Service
}

// NewService wires the sales read service.
func NewService(repo Repository, pharmacies pharmacy.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if pharmacies == nil {
		return nil, fmt.Errorf("pharmacy service required")
	}
	return &service{repo: repo, pharmacies: pharmacies}, nil
}

func (s *service) GetPeriodSnapshot(ctx context.Context, pharmacyID, periodToken string) (*SnapshotDTO, error) {
	period, err := enums.ParsePeriod(periodToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	target, err := s.pharmacies.Resolve(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}

	row, err := s.repo.GetPeriod(ctx, target.ID, period)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no %s sales snapshot for pharmacy %s", period, target.ExternalID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sales snapshot")
	}

	return &SnapshotDTO{
		PharmacyID:    target.ExternalID,
		PharmacyName:  target.Name,
		Period:        period.String(),
		Data:          json.RawMessage(row.Data),
		Hash:          row.Hash,
		UploadedAt:    row.UploadedAt,
		StoredAt:      row.UpdatedAt,
		LastUpdatedAt: target.LastUpdatedAt,
	}, nil
}
