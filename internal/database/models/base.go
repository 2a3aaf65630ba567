package models

import "time"

// Base model with a storage-assigned numeric primary key and timestamps.
// Identifiers are always positive; zero means "not yet persisted".
type Base struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
