package models

import "time"

// Setting is a single key-value row of the durable store.
type Setting struct {
	// Key is a fixed identifier, e.g. "lastGenerationTime".
	Key string `gorm:"primaryKey;size:128"`

	// Value is stored as text. The cooldown timestamp is a decimal string
	// of milliseconds since the epoch.
	Value string

	UpdatedAt time.Time
}
