package maintenance

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/printcare/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:maintenance_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return db
}

func seedPrinterAndTask(t *testing.T, db *gorm.DB, kind models.PolicyKind, value int) (*models.Printer, *models.MaintenanceTask) {
	t.Helper()
	printer := &models.Printer{Name: "Prusa MK4 " + t.Name(), PrintHours: 500, JobsCount: 200, IsActive: true}
	if err := db.Create(printer).Error; err != nil {
		t.Fatalf("failed to create printer: %v", err)
	}
	task := &models.MaintenanceTask{Title: "Clean nozzle", PolicyKind: kind, PolicyValue: value, Priority: 6}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	return printer, task
}

func TestAssignTaskInitializesSchedule(t *testing.T) {
	db := setupTestDB(t)
	printer, task := seedPrinterAndTask(t, db, models.PolicyDays, 30)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	s, err := AssignTask(db, printer.ID, task.ID, now)
	if err != nil {
		t.Fatalf("AssignTask returned error: %v", err)
	}
	if s.NextDueAt == nil || !s.NextDueAt.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("expected due 30 days out, got %v", s.NextDueAt)
	}
	if s.LastCompletedPrintHours != 500 || s.LastCompletedJobsCount != 200 {
		t.Fatalf("expected baseline snapshot of current counters, got %+v", s)
	}

	if _, err := AssignTask(db, printer.ID, task.ID, now); !errors.Is(err, ErrScheduleExists) {
		t.Fatalf("expected ErrScheduleExists on duplicate assignment, got %v", err)
	}
	if _, err := AssignTask(db, 9999, task.ID, now); !errors.Is(err, ErrPrinterNotFound) {
		t.Fatalf("expected ErrPrinterNotFound, got %v", err)
	}
	if _, err := AssignTask(db, printer.ID, 9999, now); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestAssignCounterTaskStartsNotDue(t *testing.T) {
	db := setupTestDB(t)
	printer, task := seedPrinterAndTask(t, db, models.PolicyPrintHours, 100)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	s, err := AssignTask(db, printer.ID, task.ID, now)
	if err != nil {
		t.Fatalf("AssignTask returned error: %v", err)
	}
	if s.NextDueAt != nil {
		t.Fatalf("expected no due date for a fresh counter schedule, got %v", *s.NextDueAt)
	}
}

func TestRecordWorkRejectsCounterDecrease(t *testing.T) {
	db := setupTestDB(t)
	printer, _ := seedPrinterAndTask(t, db, models.PolicyDays, 30)

	lower := 400.0
	_, err := RecordWork(db, WorkInput{
		PrinterID:          printer.ID,
		PerformedBy:        1,
		ReportedPrintHours: &lower,
	})
	if !errors.Is(err, ErrCounterDecrease) {
		t.Fatalf("expected ErrCounterDecrease, got %v", err)
	}

	var count int64
	db.Model(&models.WorkLog{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected rejected work to leave no log rows, got %d", count)
	}
}

func TestRecordWorkAdvancesSchedule(t *testing.T) {
	db := setupTestDB(t)
	printer, task := seedPrinterAndTask(t, db, models.PolicyDays, 30)
	assigned := time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
	if _, err := AssignTask(db, printer.ID, task.ID, assigned); err != nil {
		t.Fatalf("AssignTask returned error: %v", err)
	}

	now := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)
	hours := 620.5
	jobs := int64(250)
	wl, err := RecordWork(db, WorkInput{
		PrinterID:          printer.ID,
		TaskID:             &task.ID,
		PerformedBy:        1,
		Details:            "cleaned and re-lubricated",
		ReportedPrintHours: &hours,
		ReportedJobsCount:  &jobs,
		Now:                now,
	})
	if err != nil {
		t.Fatalf("RecordWork returned error: %v", err)
	}
	if wl.PrintHoursAtLog != 620.5 || wl.JobsCountAtLog != 250 {
		t.Fatalf("expected log to snapshot post-update counters, got %+v", wl)
	}

	var updated models.Printer
	if err := db.First(&updated, printer.ID).Error; err != nil {
		t.Fatalf("failed to reload printer: %v", err)
	}
	if updated.PrintHours != 620.5 || updated.JobsCount != 250 {
		t.Fatalf("expected printer counters updated, got %+v", updated)
	}

	var s models.PrinterTaskSchedule
	if err := db.Where("printer_id = ? AND task_id = ?", printer.ID, task.ID).First(&s).Error; err != nil {
		t.Fatalf("failed to reload schedule: %v", err)
	}
	if s.LastCompletedAt == nil || !s.LastCompletedAt.Equal(now) {
		t.Fatalf("expected completion stamped %v, got %v", now, s.LastCompletedAt)
	}
	if s.NextDueAt == nil || !s.NextDueAt.Equal(now.AddDate(0, 0, 30)) {
		t.Fatalf("expected next due 30 days after completion, got %v", s.NextDueAt)
	}
	if s.LastCompletedPrintHours != 620.5 || s.LastCompletedJobsCount != 250 {
		t.Fatalf("expected baseline moved to post-update counters, got %+v", s)
	}
}

func TestRecordWorkWithoutScheduleLogsOnly(t *testing.T) {
	db := setupTestDB(t)
	printer, task := seedPrinterAndTask(t, db, models.PolicyDays, 30)

	wl, err := RecordWork(db, WorkInput{
		PrinterID:   printer.ID,
		TaskID:      &task.ID,
		PerformedBy: 1,
		Details:     "ad-hoc fix, task never assigned here",
	})
	if err != nil {
		t.Fatalf("RecordWork returned error: %v", err)
	}
	if wl.ID == 0 {
		t.Fatal("expected work log row created")
	}
}

func TestOverdueDaysTaskAppearsOnBoard(t *testing.T) {
	db := setupTestDB(t)
	printer, _ := seedPrinterAndTask(t, db, models.PolicyDays, 30)
	task := &models.MaintenanceTask{Title: "Calibrate bed", PolicyKind: models.PolicyDays, PolicyValue: 30, Priority: 8}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if _, err := AssignTask(db, printer.ID, task.ID, now.AddDate(0, 0, -35)); err != nil {
		t.Fatalf("AssignTask returned error: %v", err)
	}

	board, err := BuildBoard(db, now, nil)
	if err != nil {
		t.Fatalf("BuildBoard returned error: %v", err)
	}
	if len(board.Overdue) != 1 || board.Overdue[0].TaskTitle != "Calibrate bed" {
		t.Fatalf("expected Calibrate bed overdue, got %+v", board.Overdue)
	}
}

func TestCounterTaskBecomesDueAsUsageAccrues(t *testing.T) {
	db := setupTestDB(t)
	printer, task := seedPrinterAndTask(t, db, models.PolicyPrintHours, 100)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if _, err := AssignTask(db, printer.ID, task.ID, now.AddDate(0, 0, -10)); err != nil {
		t.Fatalf("AssignTask returned error: %v", err)
	}

	// 90 hours since the baseline: not yet due
	hours := 590.0
	if _, err := RecordWork(db, WorkInput{PrinterID: printer.ID, PerformedBy: 1, ReportedPrintHours: &hours, Now: now}); err != nil {
		t.Fatalf("RecordWork returned error: %v", err)
	}
	board, err := BuildBoard(db, now, nil)
	if err != nil {
		t.Fatalf("BuildBoard returned error: %v", err)
	}
	if len(board.Upcoming) != 1 || len(board.Overdue)+len(board.Today) != 0 {
		t.Fatalf("expected task upcoming at 90 hours, got %+v", board)
	}

	// 101 hours since the baseline: due now
	hours = 601.0
	later := now.Add(2 * time.Hour)
	if _, err := RecordWork(db, WorkInput{PrinterID: printer.ID, PerformedBy: 1, ReportedPrintHours: &hours, Now: later}); err != nil {
		t.Fatalf("RecordWork returned error: %v", err)
	}
	board, err = BuildBoard(db, later, nil)
	if err != nil {
		t.Fatalf("BuildBoard returned error: %v", err)
	}
	if len(board.Today) != 1 {
		t.Fatalf("expected task due today at 101 hours, got %+v", board)
	}
}

func TestCompletingDueTaskClearsIt(t *testing.T) {
	db := setupTestDB(t)
	printer, task := seedPrinterAndTask(t, db, models.PolicyPrintHours, 100)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if _, err := AssignTask(db, printer.ID, task.ID, now.AddDate(0, 0, -10)); err != nil {
		t.Fatalf("AssignTask returned error: %v", err)
	}

	hours := 620.0
	if _, err := RecordWork(db, WorkInput{PrinterID: printer.ID, PerformedBy: 1, ReportedPrintHours: &hours, Now: now}); err != nil {
		t.Fatalf("RecordWork returned error: %v", err)
	}
	board, _ := BuildBoard(db, now, nil)
	if len(board.Today) != 1 {
		t.Fatalf("expected task due before completion, got %+v", board)
	}

	// Completing the task resets the baseline to the current counter
	if _, err := RecordWork(db, WorkInput{PrinterID: printer.ID, TaskID: &task.ID, PerformedBy: 1, Now: now.Add(time.Hour)}); err != nil {
		t.Fatalf("RecordWork returned error: %v", err)
	}
	board, _ = BuildBoard(db, now.Add(2*time.Hour), nil)
	if len(board.Overdue)+len(board.Today) != 0 {
		t.Fatalf("expected no due tasks after completion, got %+v", board)
	}
	if len(board.Upcoming) != 1 {
		t.Fatalf("expected task back in upcoming, got %+v", board)
	}
}

func TestTasksDueTodayIncludesOverdue(t *testing.T) {
	db := setupTestDB(t)
	printer, _ := seedPrinterAndTask(t, db, models.PolicyDays, 30)
	overdueTask := &models.MaintenanceTask{Title: "Tighten belts", PolicyKind: models.PolicyDays, PolicyValue: 7, Priority: 4}
	if err := db.Create(overdueTask).Error; err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if _, err := AssignTask(db, printer.ID, overdueTask.ID, now.AddDate(0, 0, -14)); err != nil {
		t.Fatalf("AssignTask returned error: %v", err)
	}

	due, err := TasksDueToday(db, now)
	if err != nil {
		t.Fatalf("TasksDueToday returned error: %v", err)
	}
	if len(due) != 1 || due[0].TaskTitle != "Tighten belts" {
		t.Fatalf("expected overdue task in daily payload, got %+v", due)
	}
}

func TestInactivePrinterExcludedFromBoard(t *testing.T) {
	db := setupTestDB(t)
	printer, task := seedPrinterAndTask(t, db, models.PolicyDays, 7)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	if _, err := AssignTask(db, printer.ID, task.ID, now.AddDate(0, 0, -14)); err != nil {
		t.Fatalf("AssignTask returned error: %v", err)
	}
	if err := db.Model(&models.Printer{}).Where("id = ?", printer.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("failed to deactivate printer: %v", err)
	}

	board, err := BuildBoard(db, now, nil)
	if err != nil {
		t.Fatalf("BuildBoard returned error: %v", err)
	}
	if len(board.Overdue)+len(board.Today)+len(board.Week)+len(board.Upcoming) != 0 {
		t.Fatalf("expected empty board for inactive printer, got %+v", board)
	}
}
