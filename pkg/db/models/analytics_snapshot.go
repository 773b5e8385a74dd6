package models

import (
	"time"

	"github.com/derebetadesse/pharmacloud-backend/pkg/types"
	"github.com/google/uuid"
)

// AnalyticsSnapshot is the legacy single-document analytics store, one row per pharmacy.
type AnalyticsSnapshot struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PharmacyID uuid.UUID      `gorm:"column:pharmacy_id;type:uuid;not null;uniqueIndex"`
	Data       types.Document `gorm:"column:data;type:jsonb;not null"`
	Hash       string         `gorm:"column:hash;not null"`
	UploadedAt time.Time      `gorm:"column:uploaded_at;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
