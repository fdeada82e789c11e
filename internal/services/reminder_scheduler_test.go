package services

import (
	"testing"
	"time"
)

func TestParseReminderTime(t *testing.T) {
	hour, minute, err := ParseReminderTime("09:30")
	if err != nil || hour != 9 || minute != 30 {
		t.Fatalf("expected 9:30, got %d:%d err=%v", hour, minute, err)
	}

	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd", "12:30:00"} {
		if _, _, err := ParseReminderTime(bad); err == nil {
			t.Fatalf("expected %q rejected", bad)
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, 8, 28, 8, 0, 0, 0, loc)

	// Still ahead today
	next := nextOccurrence(now, 9, 0)
	if want := time.Date(2026, 8, 28, 9, 0, 0, 0, loc); !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}

	// Already passed: tomorrow
	next = nextOccurrence(now, 7, 30)
	if want := time.Date(2026, 8, 29, 7, 30, 0, 0, loc); !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}

	// Exactly now: tomorrow, never an immediate double fire
	next = nextOccurrence(now, 8, 0)
	if want := time.Date(2026, 8, 29, 8, 0, 0, 0, loc); !next.Equal(want) {
		t.Fatalf("expected %v, got %v", want, next)
	}
}

func TestReconfigureKeepsOneTimerPerChannel(t *testing.T) {
	setupDispatcherDB(t)
	s := NewReminderScheduler(&ReminderDispatcher{})
	defer s.Stop()

	s.Reconfigure("email", "09:00")
	s.Reconfigure("email", "18:00")
	s.Reconfigure("telegram", "10:00")

	s.mu.Lock()
	timerCount := len(s.timers)
	s.mu.Unlock()
	if timerCount != 2 {
		t.Fatalf("expected one timer per channel, got %d", timerCount)
	}

	firesAt, ok := s.NextFiring("email")
	if !ok {
		t.Fatal("expected email channel armed")
	}
	if firesAt.Hour() != 18 || firesAt.Minute() != 0 {
		t.Fatalf("expected the latest configuration to win, fires at %v", firesAt)
	}
}

func TestReconfigureInvalidTimeDisarms(t *testing.T) {
	setupDispatcherDB(t)
	s := NewReminderScheduler(&ReminderDispatcher{})
	defer s.Stop()

	s.Reconfigure("email", "09:00")
	s.Reconfigure("email", "not-a-time")

	if _, ok := s.NextFiring("email"); ok {
		t.Fatal("expected invalid time to disarm the channel")
	}
}

func TestDisarmAndStop(t *testing.T) {
	setupDispatcherDB(t)
	s := NewReminderScheduler(&ReminderDispatcher{})

	s.Reconfigure("email", "09:00")
	s.Reconfigure("telegram", "09:00")

	s.Disarm("email")
	if _, ok := s.NextFiring("email"); ok {
		t.Fatal("expected email disarmed")
	}
	if _, ok := s.NextFiring("telegram"); !ok {
		t.Fatal("expected telegram still armed")
	}

	s.Stop()
	if _, ok := s.NextFiring("telegram"); ok {
		t.Fatal("expected all timers gone after Stop")
	}
}

func TestStopPreventsRearm(t *testing.T) {
	setupDispatcherDB(t)
	s := NewReminderScheduler(&ReminderDispatcher{})

	s.Reconfigure("email", "09:00")
	s.Stop()

	// A firing in flight re-arms through Reconfigure; after Stop that must
	// be a no-op
	s.Reconfigure("email", "09:00")
	if _, ok := s.NextFiring("email"); ok {
		t.Fatal("expected no timer armed after Stop")
	}
}
