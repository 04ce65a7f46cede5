package models

import (
	"time"
)

// CacheEntry backs the database fallback for the key-value cache when Redis is
// not configured. Invite tokens and pending-invite markers live here.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
