package models

import (
	"time"
)

// EventLog records a change made to the ledger
type EventLog struct {
	ID          string        `json:"id" db:"id"`
	Type        EEventLogType `json:"type" db:"type"`
	Location    *string       `json:"location,omitempty" db:"location"`
	Description string        `json:"description" db:"description"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}
