package services

import (
	"time"

	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/models"
)

// getConfiguredTimezone returns the system timezone from settings
// Falls back to UTC if not configured or invalid
func getConfiguredTimezone() *time.Location {
	var pref models.SystemPreference
	if err := database.DB.Where("key = ?", "system_timezone").First(&pref).Error; err != nil {
		return time.UTC
	}

	loc, err := time.LoadLocation(pref.Value)
	if err != nil {
		return time.UTC
	}

	return loc
}

// Now returns the current time in the configured timezone. Every caller
// that buckets schedules into day ranges must use this clock, so the
// dashboard, the manual test send and the daily firing agree on where the
// local midnights fall.
func Now() time.Time {
	return time.Now().In(getConfiguredTimezone())
}
