package services

import (
	"testing"
	"time"

	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/maintenance"
	"github.com/printcare/backend/internal/models"
)

func seedTimezone(t *testing.T, name string) {
	t.Helper()
	pref := models.SystemPreference{Key: "system_timezone", Value: name, ValueType: "string"}
	if err := database.DB.Create(&pref).Error; err != nil {
		t.Fatalf("failed to seed timezone: %v", err)
	}
}

func TestNowUsesConfiguredTimezone(t *testing.T) {
	setupDispatcherDB(t)
	seedTimezone(t, "Asia/Tokyo")

	now := Now()
	if now.Location().String() != "Asia/Tokyo" {
		t.Fatalf("expected Asia/Tokyo clock, got %v", now.Location())
	}
	// Only the wall clock shifts, never the instant
	if d := time.Since(now); d < -time.Minute || d > time.Minute {
		t.Fatalf("expected the configured zone to leave the instant alone, drift %v", d)
	}
}

func TestNowFallsBackToUTC(t *testing.T) {
	setupDispatcherDB(t)

	if loc := Now().Location(); loc != time.UTC {
		t.Fatalf("expected UTC with no timezone configured, got %v", loc)
	}

	seedTimezone(t, "Not/AZone")
	if loc := Now().Location(); loc != time.UTC {
		t.Fatalf("expected UTC for an unknown timezone, got %v", loc)
	}
}

// A schedule due later the same configured-zone day must land in today even
// when the server's own zone would still call that date tomorrow.
func TestDayBucketsFollowConfiguredTimezone(t *testing.T) {
	setupDispatcherDB(t)
	seedTimezone(t, "Asia/Tokyo")

	// 16:00 UTC on the 28th is already 01:00 on the 29th in Tokyo
	base := time.Date(2026, 8, 28, 16, 0, 0, 0, time.UTC)
	// Due 19:00 Tokyo on the 29th: same Tokyo day, but tomorrow in UTC
	due := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	entries := []maintenance.Entry{{ScheduleID: 1, Priority: 5, NextDueAt: &due}}

	board := maintenance.Classify(entries, base.In(getConfiguredTimezone()))
	if len(board.Today) != 1 {
		t.Fatalf("expected today in the configured zone, got %+v", board)
	}

	board = maintenance.Classify(entries, base)
	if len(board.Week) != 1 {
		t.Fatalf("expected week in UTC, got %+v", board)
	}
}
