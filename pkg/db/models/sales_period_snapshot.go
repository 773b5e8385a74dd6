package models

import (
	"time"

	"github.com/derebetadesse/pharmacloud-backend/pkg/enums"
	"github.com/derebetadesse/pharmacloud-backend/pkg/types"
	"github.com/google/uuid"
)

// SalesPeriodSnapshot stores the sales document for one (pharmacy, period) pair.
type SalesPeriodSnapshot struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PharmacyID uuid.UUID      `gorm:"column:pharmacy_id;type:uuid;not null;uniqueIndex:sales_period_snapshots_pharmacy_period_key,priority:1"`
	Period     enums.Period   `gorm:"column:period;type:text;not null;uniqueIndex:sales_period_snapshots_pharmacy_period_key,priority:2"`
	Data       types.Document `gorm:"column:data;type:jsonb;not null"`
	Hash       string         `gorm:"column:hash;not null"`
	UploadedAt time.Time      `gorm:"column:uploaded_at;not null"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
