package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/maintenance"
	"github.com/printcare/backend/internal/models"
	"github.com/printcare/backend/internal/security"
	"github.com/printcare/backend/internal/services"
)

// Preference keys exposed to the settings UI. The JWT secret is internal
// and never listed or editable through the API.
var editablePreferences = map[string]bool{
	"company_name":       true,
	"system_timezone":    true,
	"api_rate_limit":     true,
	"max_login_attempts": true,
}

type SettingsHandler struct {
	cipher     *security.Cipher
	scheduler  *services.ReminderScheduler
	dispatcher *services.ReminderDispatcher
}

func NewSettingsHandler(cipher *security.Cipher, scheduler *services.ReminderScheduler, dispatcher *services.ReminderDispatcher) *SettingsHandler {
	return &SettingsHandler{cipher: cipher, scheduler: scheduler, dispatcher: dispatcher}
}

// List returns the editable system preferences
func (h *SettingsHandler) List(c *fiber.Ctx) error {
	var prefs []models.SystemPreference
	if err := database.DB.Find(&prefs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch settings",
		})
	}

	out := make(map[string]string)
	for _, p := range prefs {
		if editablePreferences[p.Key] {
			out[p.Key] = p.Value
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

// Update upserts system preferences
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	var req map[string]string
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	for key, value := range req {
		if !editablePreferences[key] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Unknown setting: " + key,
			})
		}
		if key == "system_timezone" {
			if _, err := time.LoadLocation(value); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"message": "Invalid timezone: " + value,
				})
			}
		}

		var pref models.SystemPreference
		if err := database.DB.Where("key = ?", key).First(&pref).Error; err != nil {
			pref = models.SystemPreference{Key: key, Value: value, ValueType: "string"}
			database.DB.Create(&pref)
		} else {
			database.DB.Model(&pref).Update("value", value)
		}
	}

	database.InvalidateSettingsCache()
	logAudit(c, models.AuditActionUpdate, "settings", 0, "", "System settings updated")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Settings updated successfully",
	})
}

// Channels returns the notification channel settings, secrets omitted
func (h *SettingsHandler) Channels(c *fiber.Ctx) error {
	var settings []models.NotificationSetting
	if err := database.DB.Find(&settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch notification settings",
		})
	}

	// Report secret presence without the secret itself
	type channelView struct {
		models.NotificationSetting
		HasSMTPPassword bool       `json:"has_smtp_password"`
		HasBotToken     bool       `json:"has_bot_token"`
		NextFiring      *time.Time `json:"next_firing,omitempty"`
	}
	out := make([]channelView, 0, len(settings))
	for _, s := range settings {
		view := channelView{
			NotificationSetting: s,
			HasSMTPPassword:     s.SMTPPassword != "",
			HasBotToken:         s.BotToken != "",
		}
		if firesAt, ok := h.scheduler.NextFiring(s.Channel); ok {
			view.NextFiring = &firesAt
		}
		out = append(out, view)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    out,
	})
}

// ChannelRequest represents a notification channel update
type ChannelRequest struct {
	Enabled      *bool   `json:"enabled"`
	ReminderTime *string `json:"reminder_time"`

	SMTPHost     *string `json:"smtp_host"`
	SMTPPort     *string `json:"smtp_port"`
	SMTPUsername *string `json:"smtp_username"`
	SMTPPassword *string `json:"smtp_password"`
	FromName     *string `json:"from_name"`
	FromAddr     *string `json:"from_addr"`
	Recipients   *string `json:"recipients"`

	BotToken *string `json:"bot_token"`
	ChatID   *int64  `json:"chat_id"`
}

// UpdateChannel updates one channel's settings, encrypting new secrets and
// re-arming that channel's reminder timer
func (h *SettingsHandler) UpdateChannel(c *fiber.Ctx) error {
	channel := c.Params("channel")
	if channel != models.ChannelEmail && channel != models.ChannelTelegram {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Unknown channel",
		})
	}

	var req ChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request body",
		})
	}

	if req.ReminderTime != nil {
		if _, _, err := services.ParseReminderTime(*req.ReminderTime); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Reminder time must be HH:MM",
			})
		}
	}

	var setting models.NotificationSetting
	if err := database.DB.Where("channel = ?", channel).First(&setting).Error; err != nil {
		setting = models.NotificationSetting{Channel: channel, ReminderTime: "09:00"}
		if err := database.DB.Create(&setting).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to create channel settings",
			})
		}
	}

	updates := map[string]interface{}{}
	if req.Enabled != nil {
		updates["enabled"] = *req.Enabled
	}
	if req.ReminderTime != nil {
		updates["reminder_time"] = *req.ReminderTime
	}
	if req.SMTPHost != nil {
		updates["smtp_host"] = *req.SMTPHost
	}
	if req.SMTPPort != nil {
		updates["smtp_port"] = *req.SMTPPort
	}
	if req.SMTPUsername != nil {
		updates["smtp_username"] = *req.SMTPUsername
	}
	if req.SMTPPassword != nil && *req.SMTPPassword != "" {
		encrypted, err := h.cipher.Encrypt(*req.SMTPPassword)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to store SMTP password",
			})
		}
		updates["smtp_password"] = encrypted
	}
	if req.FromName != nil {
		updates["from_name"] = *req.FromName
	}
	if req.FromAddr != nil {
		updates["from_addr"] = *req.FromAddr
	}
	if req.Recipients != nil {
		updates["recipients"] = *req.Recipients
	}
	if req.BotToken != nil && *req.BotToken != "" {
		encrypted, err := h.cipher.Encrypt(*req.BotToken)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to store bot token",
			})
		}
		updates["bot_token"] = encrypted
	}
	if req.ChatID != nil {
		updates["chat_id"] = *req.ChatID
	}

	if err := database.DB.Model(&setting).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update channel settings",
		})
	}

	// Re-arm this channel against the new configuration
	database.DB.Where("channel = ?", channel).First(&setting)
	if setting.Enabled {
		h.scheduler.Reconfigure(channel, setting.ReminderTime)
	} else {
		h.scheduler.Disarm(channel)
	}

	logAudit(c, models.AuditActionUpdate, "notification_channel", setting.ID, channel, "Notification channel updated")

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Channel settings updated successfully",
	})
}

// TestChannel fires an immediate dispatch on one channel. The response
// separates "how many tasks are due" from "did the send work" so an empty
// fleet doesn't read as a broken transport.
func (h *SettingsHandler) TestChannel(c *fiber.Ctx) error {
	channel := c.Params("channel")
	if channel != models.ChannelEmail && channel != models.ChannelTelegram {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Unknown channel",
		})
	}

	// Same clock as the scheduled firing, so tasks_due reports what the
	// daily reminder would actually send
	now := services.Now()
	due, err := maintenanceDueCount(now)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to compute due tasks",
		})
	}

	sent, sendErr := h.dispatcher.Dispatch(channel, now, true)

	resp := fiber.Map{
		"success":   sendErr == nil,
		"tasks_due": due,
		"sent":      sent,
	}
	if sendErr != nil {
		resp["message"] = "Send failed: " + sendErr.Error()
		return c.Status(fiber.StatusBadGateway).JSON(resp)
	}
	if !sent {
		resp["message"] = "Nothing sent (no tasks due or channel not configured)"
	} else {
		resp["message"] = "Reminder sent"
	}
	return c.JSON(resp)
}

func maintenanceDueCount(now time.Time) (int, error) {
	due, err := maintenance.TasksDueToday(database.DB, now)
	if err != nil {
		return 0, err
	}
	return len(due), nil
}
