package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog is an immutable audit entry written in the same transaction
// as the change it describes.
type ActivityLog struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"not null;index"`
	UserID      string         `json:"user_id" gorm:"size:36"`
	Action      string         `json:"action" gorm:"size:32;index"`
	EntityType  string         `json:"entity_type" gorm:"size:32;index"`
	EntityID    uint           `json:"entity_id" gorm:"index"`
	Description string         `json:"description"`
	Details     datatypes.JSON `json:"details" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at"`
}
