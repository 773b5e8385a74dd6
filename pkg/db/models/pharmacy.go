package models

import (
	"time"

	"github.com/google/uuid"
)

// Pharmacy is the tenant whose on-premise system pushes snapshots to the cloud.
type Pharmacy struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalID    string     `gorm:"column:external_id;type:text;not null;uniqueIndex"`
	Name          string     `gorm:"column:name;not null"`
	APIKeyHash    string     `gorm:"column:api_key_hash;not null"`
	OwnerID       uuid.UUID  `gorm:"column:owner_id;type:uuid;not null"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	LastUpdatedAt *time.Time `gorm:"column:last_updated_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
