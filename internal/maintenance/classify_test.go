package maintenance

import (
	"reflect"
	"testing"
	"time"
)

func tp(t time.Time) *time.Time { return &t }

func TestClassifyBuckets(t *testing.T) {
	now := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	todayStart := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	entries := []Entry{
		{ScheduleID: 1, NextDueAt: tp(now.AddDate(0, 0, -5))},            // overdue
		{ScheduleID: 2, NextDueAt: tp(now.Add(2 * time.Hour))},           // today
		{ScheduleID: 3, NextDueAt: tp(todayStart.AddDate(0, 0, 3))},      // week
		{ScheduleID: 4, NextDueAt: tp(todayStart.AddDate(0, 0, 20))},     // upcoming
		{ScheduleID: 5, NextDueAt: nil},                                  // upcoming
		{ScheduleID: 6, NextDueAt: tp(now.Add(-time.Minute))},            // overdue, same day
		{ScheduleID: 7, NextDueAt: tp(todayStart.AddDate(0, 0, 1).Add(-time.Second))}, // today
	}

	board := Classify(entries, now)

	ids := func(es []Entry) []uint {
		out := make([]uint, 0, len(es))
		for _, e := range es {
			out = append(out, e.ScheduleID)
		}
		return out
	}
	if got := ids(board.Overdue); !reflect.DeepEqual(got, []uint{1, 6}) {
		t.Fatalf("overdue = %v", got)
	}
	if got := ids(board.Today); !reflect.DeepEqual(got, []uint{2, 7}) {
		t.Fatalf("today = %v", got)
	}
	if got := ids(board.Week); !reflect.DeepEqual(got, []uint{3}) {
		t.Fatalf("week = %v", got)
	}
	if got := ids(board.Upcoming); !reflect.DeepEqual(got, []uint{4, 5}) {
		t.Fatalf("upcoming = %v", got)
	}
}

func TestClassifyMidnightBoundary(t *testing.T) {
	// now is exactly local midnight: a task due at that instant is today's
	// work, not overdue and not next week's.
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	entries := []Entry{
		{ScheduleID: 1, NextDueAt: tp(now)},
		{ScheduleID: 2, NextDueAt: tp(now.AddDate(0, 0, 1))},  // tomorrow 00:00 -> week
		{ScheduleID: 3, NextDueAt: tp(now.AddDate(0, 0, 8))},  // window end -> upcoming
		{ScheduleID: 4, NextDueAt: tp(now.AddDate(0, 0, 8).Add(-time.Second))}, // still week
	}
	board := Classify(entries, now)

	if len(board.Overdue) != 0 {
		t.Fatalf("expected empty overdue, got %d entries", len(board.Overdue))
	}
	if len(board.Today) != 1 || board.Today[0].ScheduleID != 1 {
		t.Fatalf("expected schedule 1 in today, got %+v", board.Today)
	}
	if len(board.Week) != 2 {
		t.Fatalf("expected 2 entries in week, got %+v", board.Week)
	}
	if len(board.Upcoming) != 1 || board.Upcoming[0].ScheduleID != 3 {
		t.Fatalf("expected schedule 3 in upcoming, got %+v", board.Upcoming)
	}
}

func TestClassifyOrdersByPriorityStable(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	due := tp(now.Add(time.Hour))

	entries := []Entry{
		{ScheduleID: 1, Priority: 3, NextDueAt: due},
		{ScheduleID: 2, Priority: 9, NextDueAt: due},
		{ScheduleID: 3, Priority: 3, NextDueAt: due},
		{ScheduleID: 4, Priority: 7, NextDueAt: due},
	}
	board := Classify(entries, now)

	want := []uint{2, 4, 1, 3}
	for i, e := range board.Today {
		if e.ScheduleID != want[i] {
			t.Fatalf("position %d: expected schedule %d, got %d", i, want[i], e.ScheduleID)
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ScheduleID: 1, Priority: 5, NextDueAt: tp(now.Add(-time.Hour))},
		{ScheduleID: 2, Priority: 5, NextDueAt: tp(now.Add(time.Hour))},
		{ScheduleID: 3, Priority: 8, NextDueAt: tp(now.Add(time.Hour))},
		{ScheduleID: 4, Priority: 1, NextDueAt: nil},
	}

	first := Classify(entries, now)
	second := Classify(entries, now)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated classification of the same snapshot differed")
	}
}
