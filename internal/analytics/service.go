package analytics

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/derebetadesse/pharmacloud-backend/internal/pharmacy"
	"github.com/derebetadesse/pharmacloud-backend/pkg/db/models"
	"github.com/derebetadesse/pharmacloud-backend/pkg/enums"
	pkgerrors "github.com/derebetadesse/pharmacloud-backend/pkg/errors"
	"github.com/derebetadesse/pharmacloud-backend/pkg/logger"
	"github.com/derebetadesse/pharmacloud-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pharmacyTxRepository interface {
	WithTx(tx *gorm.DB) pharmacy.Repository
	TouchLastUpdated(ctx context.Context, id uuid.UUID, at time.Time) error
}

// SnapshotDTO is the read shape for analytics snapshots, joined with the
// owning pharmacy's directory entry.
type SnapshotDTO struct {
	PharmacyID    string          `json:"pharmacyId"`
	PharmacyName  string          `json:"pharmacyName"`
	Period        string          `json:"period,omitempty"`
	Data          json.RawMessage `json:"data"`
	Hash          string          `json:"hash"`
	UploadedAt    time.Time       `json:"uploadedAt"`
	StoredAt      time.Time       `json:"storedAt"`
	LastUpdatedAt *time.Time      `json:"lastUpdatedAt"`
}

// LegacySnapshotInput is the validated payload of the non-period ingestion route.
type LegacySnapshotInput struct {
	Analytics  types.Document
	Hash       string
	UploadedAt string
}

// Service exposes analytics snapshot operations.
type Service interface {
	CreateOrUpdateSnapshot(ctx context.Context, pharmacyID string, input LegacySnapshotInput) (*SnapshotDTO, error)
	GetPeriodSnapshot(ctx context.Context, pharmacyID, periodToken string) (*SnapshotDTO, error)
	GetLatest(ctx context.Context) (*SnapshotDTO, error)
}

type service struct {
	repo       Repository
	pharmacies pharmacy.Service
	pharmRepo  pharmacyTxRepository
	tx         txRunner
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds an analytics service with the provided dependencies.
func NewService(repo Repository, pharmacies pharmacy.Service, pharmRepo pharmacyTxRepository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
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
	return &service{
		repo:       repo,
		pharmacies: pharmacies,
		pharmRepo:  pharmRepo,
		tx:         tx,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// CreateOrUpdateSnapshot serves the legacy non-period ingestion route. The
// snapshot write and the pharmacy watermark share one transaction.
func (s *service) CreateOrUpdateSnapshot(ctx context.Context, pharmacyID string, input LegacySnapshotInput) (*SnapshotDTO, error) {
	if len(input.Analytics) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "analytics document is required")
	}

	target, err := s.pharmacies.Resolve(ctx, pharmacyID)
	if err != nil {
		return nil, err
	}

	uploadedAt, err := resolveUploadedAt(input.UploadedAt, s.now)
	if err != nil {
		return nil, err
	}

	hash := strings.TrimSpace(input.Hash)
	if hash == "" {
		hash = HashDocument(input.Analytics)
	}

	snap := &models.AnalyticsSnapshot{
		ID:         uuid.New(),
		PharmacyID: target.ID,
		Data:       input.Analytics,
		Hash:       hash,
		UploadedAt: uploadedAt,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpsertLegacy(ctx, snap); err != nil {
			return err
		}
		return s.pharmRepo.WithTx(tx).TouchLastUpdated(ctx, target.ID, uploadedAt)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store analytics snapshot")
	}

	return &SnapshotDTO{
		PharmacyID:   target.ExternalID,
		PharmacyName: target.Name,
		Data:         json.RawMessage(snap.Data),
		Hash:         snap.Hash,
		UploadedAt:   snap.UploadedAt,
		StoredAt:     snap.UpdatedAt,
	}, nil
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
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no %s analytics snapshot for pharmacy %s", period, target.ExternalID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load analytics snapshot")
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

// GetLatest returns the freshest analytics for the default pharmacy. The
// legacy table wins when present; otherwise the newest period snapshot serves.
func (s *service) GetLatest(ctx context.Context) (*SnapshotDTO, error) {
	target, err := s.pharmacies.ResolveDefault(ctx)
	if err != nil {
		return nil, err
	}

	if row, err := s.repo.GetLegacy(ctx, target.ID); err == nil {
		return &SnapshotDTO{
			PharmacyID:    target.ExternalID,
			PharmacyName:  target.Name,
			Data:          json.RawMessage(row.Data),
			Hash:          row.Hash,
			UploadedAt:    row.UploadedAt,
			StoredAt:      row.UpdatedAt,
			LastUpdatedAt: target.LastUpdatedAt,
		}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load analytics snapshot")
	}

	row, err := s.repo.GetLatestPeriod(ctx, target.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no analytics snapshots for pharmacy %s", target.ExternalID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load analytics snapshot")
	}

	return &SnapshotDTO{
		PharmacyID:    target.ExternalID,
		PharmacyName:  target.Name,
		Period:        row.Period.String(),
		Data:          json.RawMessage(row.Data),
		Hash:          row.Hash,
		UploadedAt:    row.UploadedAt,
		StoredAt:      row.UpdatedAt,
		LastUpdatedAt: target.LastUpdatedAt,
	}, nil
}

// HashDocument computes the fallback content hash over the compacted JSON bytes.
func HashDocument(doc types.Document) string {
	var buf bytes.Buffer
	payload := []byte(doc)
	if err := json.Compact(&buf, payload); err == nil {
		payload = buf.Bytes()
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func resolveUploadedAt(raw string, now func() time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return now().UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "uploadedAt must be an RFC 3339 timestamp").
			WithDetails(map[string]any{"uploadedAt": trimmed})
	}
	return parsed.UTC(), nil
}
