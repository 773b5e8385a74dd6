package models

import (
	"time"

	"github.com/derebetadesse/pharmacloud-backend/pkg/enums"
	"github.com/derebetadesse/pharmacloud-backend/pkg/types"
	"github.com/google/uuid"
)

// AnalyticsPeriodSnapshot stores the analytics document for one (pharmacy, period) pair.
// The unique constraint over the pair makes sync replays overwrite in place.
type AnalyticsPeriodSnapshot struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PharmacyID uuid.UUID      `gorm:"column:pharmacy_id;type:uuid;not null;uniqueIndex:analytics_period_snapshots_pharmacy_period_key,priority:1"`
	Period     enums.Period   `gorm:"column:period;type:text;not null;uniqueIndex:analytics_period_snapshots_pharmacy_period_key,priority:2"`
	Data       types.Document `gorm:"column:data;type:jsonb;not null"`
	Hash       string         `gorm:"column:hash;not null"`
	UploadedAt time.Time      `gorm:"column:uploaded_at;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
