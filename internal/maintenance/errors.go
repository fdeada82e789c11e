package maintenance

import "errors"

var (
	ErrPrinterNotFound  = errors.New("printer not found")
	ErrTaskNotFound     = errors.New("maintenance task not found")
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrScheduleExists   = errors.New("task is already assigned to this printer")
	ErrTaskInUse        = errors.New("task has active schedules")
	ErrCounterDecrease  = errors.New("usage counters must not decrease")
	ErrInvalidPolicy    = errors.New("invalid recurrence policy")
)
