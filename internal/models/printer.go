package models

import (
	"time"

	"gorm.io/gorm"
)

// Printer represents a physical 3D printer in the fleet.
// PrintHours and JobsCount are cumulative, monotonically non-decreasing
// counters; they only move through logged work or an explicit operator edit.
type Printer struct {
	ID         uint           `gorm:"column:id;primaryKey" json:"id"`
	Name       string         `gorm:"column:name;size:100;uniqueIndex;not null" json:"name"`
	Model      string         `gorm:"column:model;size:100" json:"model"`
	Serial     string         `gorm:"column:serial;size:100" json:"serial"`
	Location   string         `gorm:"column:location;size:255" json:"location"`
	Notes      string         `gorm:"column:notes;type:text" json:"notes"`
	PrintHours float64        `gorm:"column:print_hours;default:0" json:"print_hours"`
	JobsCount  int64          `gorm:"column:jobs_count;default:0" json:"jobs_count"`
	QRToken    string         `gorm:"column:qr_token;size:64;uniqueIndex" json:"qr_token"`
	IsActive   bool           `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Printer) TableName() string {
	return "printers"
}
