package maintenance

import (
	"errors"
	"time"

	"github.com/printcare/backend/internal/models"
	"gorm.io/gorm"
)

// AssignTask creates the schedule binding a task to a printer. DAYS tasks
// start a fresh countdown from the assignment; counter-based tasks start
// with no due date and the printer's current counters as their baseline.
func AssignTask(db *gorm.DB, printerID, taskID uint, now time.Time) (*models.PrinterTaskSchedule, error) {
	if now.IsZero() {
		now = time.Now()
	}

	var printer models.Printer
	if err := db.First(&printer, printerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrinterNotFound
		}
		return nil, err
	}

	var task models.MaintenanceTask
	if err := db.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	var count int64
	db.Model(&models.PrinterTaskSchedule{}).
		Where("printer_id = ? AND task_id = ?", printerID, taskID).
		Count(&count)
	if count > 0 {
		return nil, ErrScheduleExists
	}

	schedule := models.PrinterTaskSchedule{
		PrinterID:               printerID,
		TaskID:                  taskID,
		IsActive:                true,
		LastCompletedPrintHours: printer.PrintHours,
		LastCompletedJobsCount:  printer.JobsCount,
		CreatedAt:               now,
	}

	usage := Usage{PrintHours: printer.PrintHours, JobsCount: printer.JobsCount}
	schedule.NextDueAt = NextDue(Policy{Kind: task.PolicyKind, Value: task.PolicyValue}, now, now, usage, usage)

	if err := db.Create(&schedule).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}
