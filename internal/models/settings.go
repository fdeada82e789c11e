package models

import (
	"strings"
	"time"
)

// SystemPreference represents a system preference
type SystemPreference struct {
	ID        uint   `gorm:"column:id;primaryKey" json:"id"`
	Key       string `gorm:"column:key;size:100;uniqueIndex;not null" json:"key"`
	Value     string `gorm:"column:value;type:text" json:"value"`
	ValueType string `gorm:"column:value_type;size:20;default:string" json:"value_type"`
}

func (SystemPreference) TableName() string {
	return "system_preferences"
}

// Notification channels
const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
)

// NotificationSetting holds one channel's reminder configuration, one row per
// channel. Secret columns (SMTPPassword, BotToken) are stored AES-GCM
// encrypted; everything else is plain.
type NotificationSetting struct {
	ID           uint   `gorm:"column:id;primaryKey" json:"id"`
	Channel      string `gorm:"column:channel;size:20;uniqueIndex;not null" json:"channel"`
	Enabled      bool   `gorm:"column:enabled;default:false" json:"enabled"`
	ReminderTime string `gorm:"column:reminder_time;size:10;default:'09:00'" json:"reminder_time"` // HH:MM local

	// Email channel
	SMTPHost     string `gorm:"column:smtp_host;size:255" json:"smtp_host"`
	SMTPPort     string `gorm:"column:smtp_port;size:10" json:"smtp_port"`
	SMTPUsername string `gorm:"column:smtp_username;size:255" json:"smtp_username"`
	SMTPPassword string `gorm:"column:smtp_password;size:512" json:"-"`
	FromName     string `gorm:"column:from_name;size:255" json:"from_name"`
	FromAddr     string `gorm:"column:from_addr;size:255" json:"from_addr"`
	Recipients   string `gorm:"column:recipients;type:text" json:"recipients"` // comma-separated

	// Telegram channel
	BotToken string `gorm:"column:bot_token;size:512" json:"-"`
	ChatID   int64  `gorm:"column:chat_id" json:"chat_id"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (NotificationSetting) TableName() string {
	return "notification_settings"
}

// RecipientList splits the comma-separated recipients into addresses.
func (n *NotificationSetting) RecipientList() []string {
	var out []string
	for _, part := range strings.Split(n.Recipients, ",") {
		if addr := strings.TrimSpace(part); addr != "" {
			out = append(out, addr)
		}
	}
	return out
}
