package maintenance

import (
	"testing"
	"time"

	"github.com/printcare/backend/internal/models"
)

func TestValidatePolicy(t *testing.T) {
	if err := ValidatePolicy(models.PolicyDays, 30); err != nil {
		t.Fatalf("valid policy rejected: %v", err)
	}
	if err := ValidatePolicy(models.PolicyDays, 0); err != ErrInvalidPolicy {
		t.Fatalf("expected ErrInvalidPolicy for zero value, got %v", err)
	}
	if err := ValidatePolicy(models.PolicyPrintHours, -5); err != ErrInvalidPolicy {
		t.Fatalf("expected ErrInvalidPolicy for negative value, got %v", err)
	}
	if err := ValidatePolicy(models.PolicyKind("weeks"), 2); err != ErrInvalidPolicy {
		t.Fatalf("expected ErrInvalidPolicy for unknown kind, got %v", err)
	}
}

func TestNextDueDays(t *testing.T) {
	baseline := time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC)
	due := NextDue(Policy{Kind: models.PolicyDays, Value: 30}, baseline, baseline, Usage{}, Usage{})
	if due == nil {
		t.Fatal("expected a due date for a DAYS policy")
	}
	want := time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC)
	if !due.Equal(want) {
		t.Fatalf("expected due %v, got %v", want, *due)
	}
}

func TestNextDuePrintHoursThreshold(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	p := Policy{Kind: models.PolicyPrintHours, Value: 100}
	snapshot := Usage{PrintHours: 500}

	if due := NextDue(p, time.Time{}, now, Usage{PrintHours: 590}, snapshot); due != nil {
		t.Fatalf("expected nil below threshold, got %v", *due)
	}
	due := NextDue(p, time.Time{}, now, Usage{PrintHours: 600}, snapshot)
	if due == nil {
		t.Fatal("expected due at exact threshold")
	}
	if !due.Equal(now) {
		t.Fatalf("expected due stamped with reference instant, got %v", *due)
	}
}

func TestNextDueJobCountThreshold(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	p := Policy{Kind: models.PolicyJobCount, Value: 50}
	snapshot := Usage{JobsCount: 200}

	if due := NextDue(p, time.Time{}, now, Usage{JobsCount: 249}, snapshot); due != nil {
		t.Fatalf("expected nil below threshold, got %v", *due)
	}
	if due := NextDue(p, time.Time{}, now, Usage{JobsCount: 251}, snapshot); due == nil {
		t.Fatal("expected due past threshold")
	}
}

func TestDeriveNextDueDaysUsesCompletionBaseline(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	completed := now.AddDate(0, 0, -10)
	task := &models.MaintenanceTask{PolicyKind: models.PolicyDays, PolicyValue: 30}
	printer := &models.Printer{}

	s := &models.PrinterTaskSchedule{
		CreatedAt:       now.AddDate(0, 0, -60),
		LastCompletedAt: &completed,
	}
	due := DeriveNextDue(s, task, printer, now)
	if due == nil {
		t.Fatal("expected a due date")
	}
	if want := completed.AddDate(0, 0, 30); !due.Equal(want) {
		t.Fatalf("expected due %v, got %v", want, *due)
	}

	// Never completed: countdown runs from creation
	s = &models.PrinterTaskSchedule{CreatedAt: now.AddDate(0, 0, -35)}
	due = DeriveNextDue(s, task, printer, now)
	if due == nil || !due.Before(now) {
		t.Fatalf("expected overdue due date, got %v", due)
	}
}

func TestDeriveNextDueCounterRecomputesLive(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	task := &models.MaintenanceTask{PolicyKind: models.PolicyPrintHours, PolicyValue: 100}

	// Stored next_due_at is null but the printer's counter has since crossed
	// the threshold through work logged against other tasks.
	s := &models.PrinterTaskSchedule{LastCompletedPrintHours: 500}
	printer := &models.Printer{PrintHours: 610}
	due := DeriveNextDue(s, task, printer, now)
	if due == nil {
		t.Fatal("expected live recompute to report due")
	}
	if !due.Equal(now) {
		t.Fatalf("expected fresh crossing stamped now, got %v", *due)
	}

	// An existing stamp marks when the threshold was first crossed and wins
	stamped := now.AddDate(0, 0, -3)
	s.NextDueAt = &stamped
	due = DeriveNextDue(s, task, printer, now)
	if due == nil || !due.Equal(stamped) {
		t.Fatalf("expected stored stamp %v kept, got %v", stamped, due)
	}

	// Counter back under threshold after completion: not due regardless of
	// any stale stamp.
	s.NextDueAt = &stamped
	s.LastCompletedPrintHours = 600
	if due := DeriveNextDue(s, task, printer, now); due != nil {
		t.Fatalf("expected nil when below threshold, got %v", *due)
	}
}
