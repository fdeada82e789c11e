package maintenance

import (
	"sort"
	"time"

	"github.com/printcare/backend/internal/models"
)

// Bucket names used by the maintenance board
const (
	BucketOverdue  = "overdue"
	BucketToday    = "today"
	BucketWeek     = "week"
	BucketUpcoming = "upcoming"
)

// Entry is one schedule as seen by the maintenance board.
type Entry struct {
	ScheduleID    uint              `json:"schedule_id"`
	PrinterID     uint              `json:"printer_id"`
	PrinterName   string            `json:"printer_name"`
	TaskID        uint              `json:"task_id"`
	TaskTitle     string            `json:"task_title"`
	Category      string            `json:"category"`
	Priority      int               `json:"priority"`
	PriorityLabel string            `json:"priority_label"`
	PolicyKind    models.PolicyKind `json:"policy_kind"`
	PolicyValue   int               `json:"policy_value"`
	NextDueAt     *time.Time        `json:"next_due_at"`
}

// Board groups schedules by urgency.
type Board struct {
	Overdue  []Entry `json:"overdue"`
	Today    []Entry `json:"today"`
	Week     []Entry `json:"week"`
	Upcoming []Entry `json:"upcoming"`
}

// Classify buckets schedules relative to now. Day boundaries are local
// midnights of now's location.
//
// Rules, in priority order per entry:
//  1. no due date            -> upcoming
//  2. due before now         -> overdue
//  3. due within today       -> today   [today 00:00, tomorrow 00:00)
//  4. due within seven days  -> week    [tomorrow 00:00, +7 days)
//  5. otherwise              -> upcoming
//
// Within each bucket entries are ordered by priority descending; equal
// priorities keep their input order, so repeated calls on the same snapshot
// return identical output.
func Classify(entries []Entry, now time.Time) Board {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrowStart := todayStart.AddDate(0, 0, 1)
	weekEnd := tomorrowStart.AddDate(0, 0, 7)

	var board Board
	for _, e := range entries {
		switch {
		case e.NextDueAt == nil:
			board.Upcoming = append(board.Upcoming, e)
		case e.NextDueAt.Before(now):
			board.Overdue = append(board.Overdue, e)
		case !e.NextDueAt.Before(todayStart) && e.NextDueAt.Before(tomorrowStart):
			board.Today = append(board.Today, e)
		case !e.NextDueAt.Before(tomorrowStart) && e.NextDueAt.Before(weekEnd):
			board.Week = append(board.Week, e)
		default:
			board.Upcoming = append(board.Upcoming, e)
		}
	}

	sortByPriority(board.Overdue)
	sortByPriority(board.Today)
	sortByPriority(board.Week)
	sortByPriority(board.Upcoming)
	return board
}

func sortByPriority(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})
}
