package models

import (
	"time"
)

// WorkLog is an immutable record of maintenance work performed on a printer.
// Counter values are absolute snapshots as of the log, not deltas.
type WorkLog struct {
	ID        uint  `gorm:"column:id;primaryKey" json:"id"`
	PrinterID uint  `gorm:"column:printer_id;not null;index" json:"printer_id"`
	TaskID    *uint `gorm:"column:task_id;index" json:"task_id"`

	PerformedBy uint      `gorm:"column:performed_by;not null" json:"performed_by"`
	PerformedAt time.Time `gorm:"column:performed_at;not null" json:"performed_at"`
	Details     string    `gorm:"column:details;type:text" json:"details"`

	// Extra-field answers, kept as free text for the UI
	Axis        string `gorm:"column:axis;size:50" json:"axis"`
	NozzleSize  string `gorm:"column:nozzle_size;size:50" json:"nozzle_size"`
	PlasticType string `gorm:"column:plastic_type;size:50" json:"plastic_type"`
	CustomValue string `gorm:"column:custom_value;size:255" json:"custom_value"`

	PrintHoursAtLog float64 `gorm:"column:print_hours_at_log" json:"print_hours_at_log"`
	JobsCountAtLog  int64   `gorm:"column:jobs_count_at_log" json:"jobs_count_at_log"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`

	Printer *Printer         `gorm:"foreignKey:PrinterID" json:"printer,omitempty"`
	Task    *MaintenanceTask `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User    *User            `gorm:"foreignKey:PerformedBy" json:"user,omitempty"`
}

func (WorkLog) TableName() string {
	return "work_logs"
}
