package maintenance

import (
	"time"

	"github.com/printcare/backend/internal/models"
)

// Usage is a snapshot of a printer's cumulative counters at one instant.
type Usage struct {
	PrintHours float64
	JobsCount  int64
}

// Policy is a task's recurrence rule.
type Policy struct {
	Kind  models.PolicyKind
	Value int
}

// ValidatePolicy rejects malformed recurrence rules. Called at task
// creation; NextDue assumes its input already passed.
func ValidatePolicy(kind models.PolicyKind, value int) error {
	if !kind.Valid() || value <= 0 {
		return ErrInvalidPolicy
	}
	return nil
}

// NextDue computes when a schedule next becomes due.
//
// DAYS yields a concrete timestamp: baseline plus the policy value in days,
// where baseline is the last completion (or the schedule's creation when it
// was never completed). PRINT_HOURS and JOB_COUNT cannot be predicted on the
// calendar because usage accrues in batches through work logs, so they yield
// either "due now" (the reference instant, once the usage delta since the
// baseline snapshot reaches the policy value) or nil.
func NextDue(p Policy, baseline time.Time, ref time.Time, usageAtRef, usageAtBaseline Usage) *time.Time {
	switch p.Kind {
	case models.PolicyDays:
		due := baseline.AddDate(0, 0, p.Value)
		return &due
	case models.PolicyPrintHours:
		if usageAtRef.PrintHours-usageAtBaseline.PrintHours >= float64(p.Value) {
			due := ref
			return &due
		}
		return nil
	case models.PolicyJobCount:
		if usageAtRef.JobsCount-usageAtBaseline.JobsCount >= int64(p.Value) {
			due := ref
			return &due
		}
		return nil
	}
	return nil
}

// DeriveNextDue recomputes a schedule's effective due time against the
// printer's current counters.
//
// Counter-based schedules are always re-derived live: if a threshold was
// crossed by work logged against a different task on the same printer, the
// stored next_due_at was never stamped, so trusting it would hide a due
// task. An existing stamp is kept (it marks when the threshold was first
// crossed); otherwise a freshly crossed threshold is stamped with now.
func DeriveNextDue(s *models.PrinterTaskSchedule, task *models.MaintenanceTask, printer *models.Printer, now time.Time) *time.Time {
	p := Policy{Kind: task.PolicyKind, Value: task.PolicyValue}

	if task.PolicyKind == models.PolicyDays {
		if s.NextDueAt != nil {
			return s.NextDueAt
		}
		baseline := s.CreatedAt
		if s.LastCompletedAt != nil {
			baseline = *s.LastCompletedAt
		}
		return NextDue(p, baseline, now, Usage{}, Usage{})
	}

	current := Usage{PrintHours: printer.PrintHours, JobsCount: printer.JobsCount}
	snapshot := Usage{PrintHours: s.LastCompletedPrintHours, JobsCount: s.LastCompletedJobsCount}

	due := NextDue(p, time.Time{}, now, current, snapshot)
	if due == nil {
		return nil
	}
	if s.NextDueAt != nil {
		return s.NextDueAt
	}
	return due
}
