package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/models"
)

// ReminderScheduler owns one timer per notification channel, each armed for
// that channel's next configured HH:MM firing. Reconfiguring a channel
// cancels its old timer before arming the new one, so at most one timer per
// channel is live and stale firings cannot occur.
type ReminderScheduler struct {
	dispatcher *ReminderDispatcher

	mu         sync.Mutex
	timers     map[string]*channelTimer
	generation uint64
	stopped    bool
}

// channelTimer is one armed firing. The generation guard makes a canceled
// timer's late callback a no-op even if it already fired into the goroutine.
type channelTimer struct {
	timer      *time.Timer
	generation uint64
	firesAt    time.Time
}

// NewReminderScheduler creates a scheduler; no timers run until Start
func NewReminderScheduler(dispatcher *ReminderDispatcher) *ReminderScheduler {
	return &ReminderScheduler{
		dispatcher: dispatcher,
		timers:     make(map[string]*channelTimer),
	}
}

// Start arms a timer for every enabled channel
func (s *ReminderScheduler) Start() {
	log.Println("ReminderScheduler started")
	var settings []models.NotificationSetting
	if err := database.DB.Where("enabled = ?", true).Find(&settings).Error; err != nil {
		log.Printf("ReminderScheduler: Failed to load channel settings: %v", err)
		return
	}
	for _, setting := range settings {
		s.Reconfigure(setting.Channel, setting.ReminderTime)
	}
}

// Stop cancels all armed timers. A firing already in flight will still
// dispatch, but cannot re-arm its channel afterwards.
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for channel, ct := range s.timers {
		ct.timer.Stop()
		delete(s.timers, channel)
	}
	log.Println("ReminderScheduler stopped")
}

// Reconfigure re-arms a channel's timer for a new HH:MM, canceling any
// previously armed firing first. An empty or invalid time disarms the
// channel.
func (s *ReminderScheduler) Reconfigure(channel, reminderTime string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	if ct, ok := s.timers[channel]; ok {
		ct.timer.Stop()
		delete(s.timers, channel)
	}

	hour, minute, err := ParseReminderTime(reminderTime)
	if err != nil {
		log.Printf("ReminderScheduler: Channel %s disarmed: %v", channel, err)
		return
	}

	now := Now()
	firesAt := nextOccurrence(now, hour, minute)
	s.generation++
	generation := s.generation

	ct := &channelTimer{generation: generation, firesAt: firesAt}
	ct.timer = time.AfterFunc(firesAt.Sub(now), func() {
		s.fire(channel, generation)
	})
	s.timers[channel] = ct
	log.Printf("ReminderScheduler: Channel %s armed for %s", channel, firesAt.Format("2006-01-02 15:04"))
}

// Disarm cancels a channel's timer, used when the channel is disabled
func (s *ReminderScheduler) Disarm(channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ct, ok := s.timers[channel]; ok {
		ct.timer.Stop()
		delete(s.timers, channel)
		log.Printf("ReminderScheduler: Channel %s disarmed", channel)
	}
}

// NextFiring reports when a channel's timer fires, for the settings UI
func (s *ReminderScheduler) NextFiring(channel string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ct, ok := s.timers[channel]
	if !ok {
		return time.Time{}, false
	}
	return ct.firesAt, true
}

// fire runs the dispatch and re-arms the channel for the next day. The
// dispatch itself runs in this timer goroutine; re-arming does not wait for
// slow transports because the new timer is a day out anyway.
func (s *ReminderScheduler) fire(channel string, generation uint64) {
	s.mu.Lock()
	ct, ok := s.timers[channel]
	if !ok || ct.generation != generation {
		// Reconfigured or stopped while this callback was in flight
		s.mu.Unlock()
		return
	}
	delete(s.timers, channel)
	s.mu.Unlock()

	now := Now()
	log.Printf("ReminderScheduler: Firing %s reminder", channel)
	if _, err := s.dispatcher.Dispatch(channel, now, false); err != nil {
		log.Printf("ReminderScheduler: %s dispatch failed: %v", channel, err)
	}

	// Re-arm from the current channel settings; the configured time may
	// have changed while we dispatched.
	var setting models.NotificationSetting
	if err := database.DB.Where("channel = ? AND enabled = ?", channel, true).First(&setting).Error; err != nil {
		log.Printf("ReminderScheduler: Channel %s no longer enabled, not re-arming", channel)
		return
	}
	s.Reconfigure(channel, setting.ReminderTime)
}

// ParseReminderTime parses "HH:MM" into hour and minute
func ParseReminderTime(value string) (int, int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid reminder time %q", value)
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid reminder time %q", value)
	}
	return hour, minute, nil
}

// nextOccurrence returns the next instant with the given wall-clock time in
// now's location: today if still ahead, otherwise tomorrow.
func nextOccurrence(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
