package maintenance

import (
	"errors"
	"time"

	"github.com/printcare/backend/internal/models"
	"gorm.io/gorm"
)

// WorkInput describes one unit of performed maintenance work.
// Reported counter values are absolute readings that replace the printer's
// stored counters; they are not deltas.
type WorkInput struct {
	PrinterID   uint
	TaskID      *uint
	PerformedBy uint
	Details     string

	Axis        string
	NozzleSize  string
	PlasticType string
	CustomValue string

	ReportedPrintHours *float64
	ReportedJobsCount  *int64

	// Now overrides the completion instant; zero means time.Now()
	Now time.Time
}

// RecordWork creates a work log entry and advances the matching schedule,
// all inside one transaction:
//
//  1. the printer's counters move to the reported values (never backwards),
//  2. an immutable work log row captures the post-update counters,
//  3. if the work completes a scheduled task, the schedule's baseline is
//     reset to those counters and its next due date recomputed.
//
// A task id without a matching schedule is not an error: work can be logged
// against a printer without an assignment.
func RecordWork(db *gorm.DB, in WorkInput) (*models.WorkLog, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	var workLog *models.WorkLog
	err := db.Transaction(func(tx *gorm.DB) error {
		var printer models.Printer
		if err := tx.First(&printer, in.PrinterID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPrinterNotFound
			}
			return err
		}

		// Counters are cumulative; a lower reading is a reporting mistake
		if in.ReportedPrintHours != nil && *in.ReportedPrintHours < printer.PrintHours {
			return ErrCounterDecrease
		}
		if in.ReportedJobsCount != nil && *in.ReportedJobsCount < printer.JobsCount {
			return ErrCounterDecrease
		}

		updates := map[string]interface{}{}
		if in.ReportedPrintHours != nil {
			printer.PrintHours = *in.ReportedPrintHours
			updates["print_hours"] = printer.PrintHours
		}
		if in.ReportedJobsCount != nil {
			printer.JobsCount = *in.ReportedJobsCount
			updates["jobs_count"] = printer.JobsCount
		}
		if len(updates) > 0 {
			if err := tx.Model(&printer).Updates(updates).Error; err != nil {
				return err
			}
		}

		workLog = &models.WorkLog{
			PrinterID:       in.PrinterID,
			TaskID:          in.TaskID,
			PerformedBy:     in.PerformedBy,
			PerformedAt:     now,
			Details:         in.Details,
			Axis:            in.Axis,
			NozzleSize:      in.NozzleSize,
			PlasticType:     in.PlasticType,
			CustomValue:     in.CustomValue,
			PrintHoursAtLog: printer.PrintHours,
			JobsCountAtLog:  printer.JobsCount,
		}
		if err := tx.Create(workLog).Error; err != nil {
			return err
		}

		if in.TaskID == nil {
			return nil
		}

		var schedule models.PrinterTaskSchedule
		err := tx.Where("printer_id = ? AND task_id = ?", in.PrinterID, *in.TaskID).
			First(&schedule).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No assignment for this task on this printer - log only
			return nil
		}
		if err != nil {
			return err
		}

		var task models.MaintenanceTask
		if err := tx.First(&task, schedule.TaskID).Error; err != nil {
			return err
		}

		// Usage since completion is zero at this instant, so counter-based
		// policies go back to "not due" and DAYS restarts from now.
		post := Usage{PrintHours: printer.PrintHours, JobsCount: printer.JobsCount}
		nextDue := NextDue(Policy{Kind: task.PolicyKind, Value: task.PolicyValue}, now, now, post, post)

		return tx.Model(&schedule).Updates(map[string]interface{}{
			"last_completed_at":          now,
			"last_completed_print_hours": printer.PrintHours,
			"last_completed_jobs_count":  printer.JobsCount,
			"next_due_at":                nextDue,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return workLog, nil
}
