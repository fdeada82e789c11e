package services

import (
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/maintenance"
	"github.com/printcare/backend/internal/models"
	"github.com/printcare/backend/internal/security"
)

// Dispatch statuses written to reminder_logs
const (
	DispatchSent    = "sent"
	DispatchFailed  = "failed"
	DispatchSkipped = "skipped"
)

// emailSender and telegramSender are the transport seams; production wires
// the real services, tests substitute recorders.
type emailSender func(config *EmailConfig, to, subject, body string, isHTML bool) error
type telegramSender func(config *TelegramConfig, text string) error

// ReminderDispatcher assembles the daily due-task digest and pushes it out
// through the enabled channels. It never contacts a transport when there is
// nothing to say or nothing configured to say it with.
type ReminderDispatcher struct {
	cipher       *security.Cipher
	sendEmail    emailSender
	sendTelegram telegramSender
}

// NewReminderDispatcher creates a dispatcher wired to the real transports
func NewReminderDispatcher(cipher *security.Cipher) *ReminderDispatcher {
	email := NewEmailService(cipher)
	telegram := NewTelegramService(cipher)
	return &ReminderDispatcher{
		cipher:       cipher,
		sendEmail:    email.SendEmailWithConfig,
		sendTelegram: telegram.SendMessageWithConfig,
	}
}

// Dispatch sends the due-task digest on one channel. Returns whether a
// message actually went out. No due tasks, a disabled channel, or missing
// transport configuration all short-circuit without touching the network;
// only the skip caused by an empty task list goes unlogged, since it is the
// normal daily outcome.
func (d *ReminderDispatcher) Dispatch(channel string, now time.Time, manual bool) (bool, error) {
	var setting models.NotificationSetting
	if err := database.DB.Where("channel = ?", channel).First(&setting).Error; err != nil {
		return false, fmt.Errorf("channel %s not configured", channel)
	}
	if !setting.Enabled && !manual {
		return false, nil
	}

	due, err := maintenance.TasksDueToday(database.DB, now)
	if err != nil {
		d.logDispatch(channel, 0, DispatchFailed, err.Error(), manual)
		return false, err
	}
	if len(due) == 0 {
		log.Printf("ReminderDispatcher: No tasks due, skipping %s reminder", channel)
		if manual {
			d.logDispatch(channel, 0, DispatchSkipped, "", manual)
		}
		return false, nil
	}

	switch channel {
	case models.ChannelEmail:
		return d.dispatchEmail(&setting, due, now, manual)
	case models.ChannelTelegram:
		return d.dispatchTelegram(&setting, due, now, manual)
	}
	return false, fmt.Errorf("unknown channel %s", channel)
}

// DispatchAll fires every channel; per-channel failures are logged and do
// not stop the others.
func (d *ReminderDispatcher) DispatchAll(now time.Time) {
	for _, channel := range []string{models.ChannelEmail, models.ChannelTelegram} {
		if _, err := d.Dispatch(channel, now, false); err != nil {
			log.Printf("ReminderDispatcher: %s dispatch failed: %v", channel, err)
		}
	}
}

func (d *ReminderDispatcher) dispatchEmail(setting *models.NotificationSetting, due []maintenance.DueSummary, now time.Time, manual bool) (bool, error) {
	recipients := setting.RecipientList()
	if setting.SMTPHost == "" || len(recipients) == 0 {
		log.Printf("ReminderDispatcher: Email transport not configured, skipping")
		d.logDispatch(models.ChannelEmail, len(due), DispatchSkipped, "SMTP or recipients not configured", manual)
		return false, nil
	}

	email := NewEmailService(d.cipher)
	config, err := email.configFromSetting(setting)
	if err != nil {
		d.logDispatch(models.ChannelEmail, len(due), DispatchSkipped, err.Error(), manual)
		return false, nil
	}

	subject := fmt.Sprintf("PrintCare: %d maintenance task(s) due - %s", len(due), now.Format("2006-01-02"))
	body := buildEmailDigest(due, now)

	// One recipient failing must not starve the rest
	var failures []string
	for _, to := range recipients {
		if err := d.sendEmail(config, to, subject, body, true); err != nil {
			log.Printf("ReminderDispatcher: Email to %s failed: %v", to, err)
			failures = append(failures, fmt.Sprintf("%s: %v", to, err))
		}
	}

	if len(failures) == len(recipients) {
		errMsg := strings.Join(failures, "; ")
		d.logDispatch(models.ChannelEmail, len(due), DispatchFailed, errMsg, manual)
		return false, fmt.Errorf("all recipients failed: %s", errMsg)
	}
	d.logDispatch(models.ChannelEmail, len(due), DispatchSent, strings.Join(failures, "; "), manual)
	return true, nil
}

func (d *ReminderDispatcher) dispatchTelegram(setting *models.NotificationSetting, due []maintenance.DueSummary, now time.Time, manual bool) (bool, error) {
	if setting.BotToken == "" || setting.ChatID == 0 {
		log.Printf("ReminderDispatcher: Telegram transport not configured, skipping")
		d.logDispatch(models.ChannelTelegram, len(due), DispatchSkipped, "bot token or chat id not configured", manual)
		return false, nil
	}

	token := setting.BotToken
	if d.cipher != nil {
		if decrypted, err := d.cipher.Decrypt(token); err == nil {
			token = decrypted
		}
	}
	config := &TelegramConfig{Token: token, ChatID: setting.ChatID}

	text := buildTelegramDigest(due, now)
	if err := d.sendTelegram(config, text); err != nil {
		d.logDispatch(models.ChannelTelegram, len(due), DispatchFailed, err.Error(), manual)
		return false, err
	}
	d.logDispatch(models.ChannelTelegram, len(due), DispatchSent, "", manual)
	return true, nil
}

func (d *ReminderDispatcher) logDispatch(channel string, tasksDue int, status, errMsg string, manual bool) {
	database.DB.Create(&models.ReminderLog{
		Channel:      channel,
		TasksDue:     tasksDue,
		Status:       status,
		ErrorMessage: errMsg,
		Manual:       manual,
	})
}

// buildEmailDigest renders the due list as an HTML table, highest priority
// first (the list is already ordered overdue-then-today, each by priority).
func buildEmailDigest(due []maintenance.DueSummary, now time.Time) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #3b82f6; color: white; padding: 20px; text-align: center; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 20px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 8px 8px; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 8px; border-bottom: 1px solid #e5e7eb; }
        .critical { color: #dc2626; font-weight: bold; }
        .high { color: #ea580c; font-weight: bold; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>PrintCare</h1>
        </div>
        <div class="content">
`)
	fmt.Fprintf(&b, "            <h2>%d maintenance task(s) due as of %s</h2>\n", len(due), now.Format("January 2, 2006"))
	b.WriteString("            <table>\n")
	b.WriteString("                <tr><th>Printer</th><th>Task</th><th>Due</th><th>Priority</th></tr>\n")
	for _, t := range due {
		fmt.Fprintf(&b, "                <tr><td>%s</td><td>%s</td><td>%s</td><td class=\"%s\">%s</td></tr>\n",
			html.EscapeString(t.PrinterName),
			html.EscapeString(t.TaskTitle),
			t.DueDate.Format("2006-01-02"),
			t.PriorityLabel,
			t.PriorityLabel)
	}
	b.WriteString(`            </table>
        </div>
    </div>
</body>
</html>`)
	return b.String()
}

// buildTelegramDigest renders the due list as a compact numbered message
func buildTelegramDigest(due []maintenance.DueSummary, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>PrintCare</b>\n%d maintenance task(s) due as of %s\n\n", len(due), now.Format("2006-01-02"))
	for i, t := range due {
		fmt.Fprintf(&b, "%d. %s - %s (%s, due %s)\n",
			i+1,
			html.EscapeString(t.PrinterName),
			html.EscapeString(t.TaskTitle),
			t.PriorityLabel,
			t.DueDate.Format("2006-01-02"))
	}
	return strings.TrimRight(b.String(), "\n")
}
