package models

import (
	"time"
)

// PrinterTaskSchedule binds one maintenance task to one printer. At most one
// schedule exists per (printer, task) pair.
//
// For DAYS tasks NextDueAt is a real future timestamp. For PRINT_HOURS and
// JOB_COUNT tasks it is only ever stamped with the instant the threshold was
// crossed ("due now"), or left null; the counter snapshots below are the
// authoritative baseline.
type PrinterTaskSchedule struct {
	ID        uint `gorm:"column:id;primaryKey" json:"id"`
	PrinterID uint `gorm:"column:printer_id;not null;uniqueIndex:idx_printer_task" json:"printer_id"`
	TaskID    uint `gorm:"column:task_id;not null;uniqueIndex:idx_printer_task" json:"task_id"`

	IsActive        bool       `gorm:"column:is_active;default:true" json:"is_active"`
	LastCompletedAt *time.Time `gorm:"column:last_completed_at" json:"last_completed_at"`
	NextDueAt       *time.Time `gorm:"column:next_due_at" json:"next_due_at"`

	// Printer counter snapshot taken at the last completion
	LastCompletedPrintHours float64 `gorm:"column:last_completed_print_hours;default:0" json:"last_completed_print_hours"`
	LastCompletedJobsCount  int64   `gorm:"column:last_completed_jobs_count;default:0" json:"last_completed_jobs_count"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	Printer *Printer         `gorm:"foreignKey:PrinterID" json:"printer,omitempty"`
	Task    *MaintenanceTask `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}

func (PrinterTaskSchedule) TableName() string {
	return "printer_task_schedules"
}
