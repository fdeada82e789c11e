package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDispatcherDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:dispatcher_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	database.DB = db
}

// recordingTransports returns a dispatcher whose transports only count calls
func recordingTransports() (*ReminderDispatcher, *int, *int) {
	emailCalls := 0
	telegramCalls := 0
	d := &ReminderDispatcher{
		sendEmail: func(config *EmailConfig, to, subject, body string, isHTML bool) error {
			emailCalls++
			return nil
		},
		sendTelegram: func(config *TelegramConfig, text string) error {
			telegramCalls++
			return nil
		},
	}
	return d, &emailCalls, &telegramCalls
}

func seedEmailChannel(t *testing.T, enabled bool) {
	t.Helper()
	setting := models.NotificationSetting{
		Channel:      models.ChannelEmail,
		Enabled:      enabled,
		ReminderTime: "09:00",
		SMTPHost:     "smtp.example.com",
		SMTPPort:     "587",
		FromAddr:     "printcare@example.com",
		Recipients:   "tech@example.com, lead@example.com",
	}
	if err := database.DB.Create(&setting).Error; err != nil {
		t.Fatalf("failed to seed email channel: %v", err)
	}
}

func seedDueTask(t *testing.T) {
	t.Helper()
	printer := models.Printer{Name: "Ender 3 " + t.Name(), IsActive: true}
	if err := database.DB.Create(&printer).Error; err != nil {
		t.Fatalf("failed to seed printer: %v", err)
	}
	task := models.MaintenanceTask{Title: "Lubricate Z axis", PolicyKind: models.PolicyDays, PolicyValue: 7, Priority: 6}
	if err := database.DB.Create(&task).Error; err != nil {
		t.Fatalf("failed to seed task: %v", err)
	}
	overdue := time.Now().AddDate(0, 0, -2)
	schedule := models.PrinterTaskSchedule{
		PrinterID: printer.ID,
		TaskID:    task.ID,
		IsActive:  true,
		NextDueAt: &overdue,
	}
	if err := database.DB.Create(&schedule).Error; err != nil {
		t.Fatalf("failed to seed schedule: %v", err)
	}
}

func TestDispatchNothingDueSkipsTransport(t *testing.T) {
	setupDispatcherDB(t)
	seedEmailChannel(t, true)
	d, emailCalls, _ := recordingTransports()

	sent, err := d.Dispatch(models.ChannelEmail, time.Now(), false)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if sent {
		t.Fatal("expected no send with nothing due")
	}
	if *emailCalls != 0 {
		t.Fatalf("expected zero transport calls, got %d", *emailCalls)
	}

	var count int64
	database.DB.Model(&models.ReminderLog{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no log rows for the routine empty case, got %d", count)
	}
}

func TestDispatchDisabledChannelSkipsTransport(t *testing.T) {
	setupDispatcherDB(t)
	seedEmailChannel(t, false)
	seedDueTask(t)
	d, emailCalls, _ := recordingTransports()

	sent, err := d.Dispatch(models.ChannelEmail, time.Now(), false)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if sent || *emailCalls != 0 {
		t.Fatalf("expected disabled channel untouched, sent=%v calls=%d", sent, *emailCalls)
	}
}

func TestDispatchEmailSendsToEveryRecipient(t *testing.T) {
	setupDispatcherDB(t)
	seedEmailChannel(t, true)
	seedDueTask(t)
	d, emailCalls, _ := recordingTransports()

	sent, err := d.Dispatch(models.ChannelEmail, time.Now(), false)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if !sent {
		t.Fatal("expected a send with a due task")
	}
	if *emailCalls != 2 {
		t.Fatalf("expected one call per recipient, got %d", *emailCalls)
	}

	var logEntry models.ReminderLog
	if err := database.DB.First(&logEntry).Error; err != nil {
		t.Fatalf("expected a reminder log row: %v", err)
	}
	if logEntry.Status != DispatchSent || logEntry.TasksDue != 1 {
		t.Fatalf("unexpected log row: %+v", logEntry)
	}
}

func TestDispatchEmailOneRecipientFailing(t *testing.T) {
	setupDispatcherDB(t)
	seedEmailChannel(t, true)
	seedDueTask(t)

	calls := 0
	d := &ReminderDispatcher{
		sendEmail: func(config *EmailConfig, to, subject, body string, isHTML bool) error {
			calls++
			if to == "tech@example.com" {
				return errors.New("mailbox full")
			}
			return nil
		},
	}

	sent, err := d.Dispatch(models.ChannelEmail, time.Now(), false)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if !sent {
		t.Fatal("expected partial success to count as sent")
	}
	if calls != 2 {
		t.Fatalf("expected the failing recipient not to stop the rest, got %d calls", calls)
	}

	var logEntry models.ReminderLog
	database.DB.First(&logEntry)
	if logEntry.Status != DispatchSent || !strings.Contains(logEntry.ErrorMessage, "mailbox full") {
		t.Fatalf("expected sent log with partial failure recorded, got %+v", logEntry)
	}
}

func TestDispatchEmailAllRecipientsFailing(t *testing.T) {
	setupDispatcherDB(t)
	seedEmailChannel(t, true)
	seedDueTask(t)

	d := &ReminderDispatcher{
		sendEmail: func(config *EmailConfig, to, subject, body string, isHTML bool) error {
			return errors.New("connection refused")
		},
	}

	sent, err := d.Dispatch(models.ChannelEmail, time.Now(), false)
	if err == nil || sent {
		t.Fatalf("expected total failure to error, sent=%v err=%v", sent, err)
	}

	var logEntry models.ReminderLog
	database.DB.First(&logEntry)
	if logEntry.Status != DispatchFailed {
		t.Fatalf("expected failed log row, got %+v", logEntry)
	}
}

func TestDispatchTelegramUnconfiguredSkips(t *testing.T) {
	setupDispatcherDB(t)
	seedDueTask(t)
	setting := models.NotificationSetting{Channel: models.ChannelTelegram, Enabled: true, ReminderTime: "09:00"}
	if err := database.DB.Create(&setting).Error; err != nil {
		t.Fatalf("failed to seed telegram channel: %v", err)
	}
	d, _, telegramCalls := recordingTransports()

	sent, err := d.Dispatch(models.ChannelTelegram, time.Now(), false)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if sent || *telegramCalls != 0 {
		t.Fatalf("expected unconfigured transport untouched, sent=%v calls=%d", sent, *telegramCalls)
	}

	var logEntry models.ReminderLog
	database.DB.First(&logEntry)
	if logEntry.Status != DispatchSkipped {
		t.Fatalf("expected skipped log row, got %+v", logEntry)
	}
}

func TestDispatchTelegramSendsDigest(t *testing.T) {
	setupDispatcherDB(t)
	seedDueTask(t)
	setting := models.NotificationSetting{
		Channel:      models.ChannelTelegram,
		Enabled:      true,
		ReminderTime: "09:00",
		BotToken:     "123456:plaintext-token",
		ChatID:       -100123,
	}
	if err := database.DB.Create(&setting).Error; err != nil {
		t.Fatalf("failed to seed telegram channel: %v", err)
	}

	var gotText string
	var gotConfig *TelegramConfig
	d := &ReminderDispatcher{
		sendTelegram: func(config *TelegramConfig, text string) error {
			gotConfig = config
			gotText = text
			return nil
		},
	}

	sent, err := d.Dispatch(models.ChannelTelegram, time.Now(), false)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if !sent {
		t.Fatal("expected a send")
	}
	if gotConfig.ChatID != -100123 {
		t.Fatalf("expected configured chat id, got %d", gotConfig.ChatID)
	}
	if !strings.Contains(gotText, "Lubricate Z axis") {
		t.Fatalf("expected digest to name the due task, got %q", gotText)
	}
}

func TestManualDispatchLogsEmptySkip(t *testing.T) {
	setupDispatcherDB(t)
	seedEmailChannel(t, false)
	d, emailCalls, _ := recordingTransports()

	// Manual test-send ignores the enabled flag but still refuses to send
	// an empty digest
	sent, err := d.Dispatch(models.ChannelEmail, time.Now(), true)
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if sent || *emailCalls != 0 {
		t.Fatalf("expected no send, sent=%v calls=%d", sent, *emailCalls)
	}

	var logEntry models.ReminderLog
	if err := database.DB.First(&logEntry).Error; err != nil {
		t.Fatalf("expected manual attempt logged: %v", err)
	}
	if logEntry.Status != DispatchSkipped || !logEntry.Manual {
		t.Fatalf("expected manual skipped log row, got %+v", logEntry)
	}
}
