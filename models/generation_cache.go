package models

import (
	"time"
)

// GenerationCache stores a generated record so restarts don't call the model again
type GenerationCache struct {
	ID        string         `db:"id" json:"id"`
	Location  string         `db:"location" json:"location"`
	Record    LocationRecord `json:"record"`
	Provider  string         `db:"provider" json:"provider"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
	ExpiresAt time.Time      `db:"expires_at" json:"expires_at"`
}

// IsExpired reports whether the entry is no longer usable at now
func (c *GenerationCache) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
