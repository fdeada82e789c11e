package maintenance

import (
	"time"

	"github.com/printcare/backend/internal/models"
	"gorm.io/gorm"
)

// DueSummary is one reminder line: a task due on a printer.
type DueSummary struct {
	PrinterName   string    `json:"printer_name"`
	TaskTitle     string    `json:"task_title"`
	DueDate       time.Time `json:"due_date"`
	Priority      int       `json:"priority"`
	PriorityLabel string    `json:"priority_label"`
}

// BoardEntries loads all active schedules with their printer and task and
// derives each schedule's effective due time from current printer counters.
// A non-nil printerIDs restricts the result to those printers (access
// filtering decided by the caller).
func BoardEntries(db *gorm.DB, now time.Time, printerIDs []uint) ([]Entry, error) {
	query := db.Preload("Printer").Preload("Task").
		Where("is_active = ?", true).
		Order("id ASC")
	if printerIDs != nil {
		query = query.Where("printer_id IN ?", printerIDs)
	}

	var schedules []models.PrinterTaskSchedule
	if err := query.Find(&schedules).Error; err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(schedules))
	for i := range schedules {
		s := &schedules[i]
		if s.Printer == nil || s.Task == nil || !s.Printer.IsActive {
			continue
		}
		entries = append(entries, Entry{
			ScheduleID:    s.ID,
			PrinterID:     s.PrinterID,
			PrinterName:   s.Printer.Name,
			TaskID:        s.TaskID,
			TaskTitle:     s.Task.Title,
			Category:      s.Task.Category,
			Priority:      s.Task.Priority,
			PriorityLabel: s.Task.PriorityLabel(),
			PolicyKind:    s.Task.PolicyKind,
			PolicyValue:   s.Task.PolicyValue,
			NextDueAt:     DeriveNextDue(s, s.Task, s.Printer, now),
		})
	}
	return entries, nil
}

// BuildBoard classifies all active schedules as of now.
func BuildBoard(db *gorm.DB, now time.Time, printerIDs []uint) (Board, error) {
	entries, err := BoardEntries(db, now, printerIDs)
	if err != nil {
		return Board{}, err
	}
	return Classify(entries, now), nil
}

// TasksDueToday returns the reminder payload for the daily notification
// firing: everything in the today bucket plus everything already overdue.
// Overdue tasks stay in the payload until completed, which makes the next
// daily firing the retry path for a failed send.
func TasksDueToday(db *gorm.DB, now time.Time) ([]DueSummary, error) {
	board, err := BuildBoard(db, now, nil)
	if err != nil {
		return nil, err
	}

	due := make([]DueSummary, 0, len(board.Overdue)+len(board.Today))
	for _, e := range append(board.Overdue, board.Today...) {
		d := now
		if e.NextDueAt != nil {
			d = *e.NextDueAt
		}
		due = append(due, DueSummary{
			PrinterName:   e.PrinterName,
			TaskTitle:     e.TaskTitle,
			DueDate:       d,
			Priority:      e.Priority,
			PriorityLabel: e.PriorityLabel,
		})
	}
	return due, nil
}
