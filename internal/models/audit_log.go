package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records a single engine mutation for later inspection.
type AuditLog struct {
	ID           string  `gorm:"primaryKey;type:uuid" json:"id"`
	OrgID        string  `gorm:"type:uuid;not null;index" json:"org_id"`
	ActorUserID  *string `gorm:"type:uuid;index" json:"actor_user_id"`
	TargetUserID string  `gorm:"type:uuid;index" json:"target_user_id"`

	Action   string         `gorm:"not null;index" json:"action"`
	Result   string         `gorm:"not null" json:"result"`
	Metadata datatypes.JSON `gorm:"type:json" json:"metadata"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
