package models

import "time"

// Base carries the bookkeeping columns shared by every tracked table.
// Version is bumped on each update and checked to detect concurrent edits.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Version   uint      `gorm:"not null;default:1" json:"version"`
	CreatedBy *uint     `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Base) Meta() *Base { return b }

// Record is implemented by every model embedding Base.
type Record interface {
	Meta() *Base
	TableName() string
}
