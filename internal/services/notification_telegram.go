package services

import (
	"fmt"

	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/models"
	"github.com/printcare/backend/internal/security"
	tele "gopkg.in/telebot.v4"
)

// TelegramService sends reminder messages to a single configured chat.
// The bot is send-only; no update polling.
type TelegramService struct {
	cipher *security.Cipher
}

// NewTelegramService creates a new telegram service
func NewTelegramService(cipher *security.Cipher) *TelegramService {
	return &TelegramService{cipher: cipher}
}

// TelegramConfig holds bot token and target chat
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// GetConfig builds the bot configuration from the telegram channel's
// notification settings, decrypting the stored token.
func (s *TelegramService) GetConfig() (*TelegramConfig, error) {
	var setting models.NotificationSetting
	if err := database.DB.Where("channel = ?", models.ChannelTelegram).First(&setting).Error; err != nil {
		return nil, fmt.Errorf("telegram channel not configured")
	}

	if setting.BotToken == "" || setting.ChatID == 0 {
		return nil, fmt.Errorf("telegram bot token or chat id not configured")
	}

	token := setting.BotToken
	if s.cipher != nil {
		decrypted, err := s.cipher.Decrypt(token)
		if err == nil {
			token = decrypted
		}
	}

	return &TelegramConfig{Token: token, ChatID: setting.ChatID}, nil
}

// SendMessage sends an HTML-formatted message to the configured chat
func (s *TelegramService) SendMessage(text string) error {
	config, err := s.GetConfig()
	if err != nil {
		return err
	}

	return s.SendMessageWithConfig(config, text)
}

// SendMessageWithConfig sends a message with specific config (useful for testing)
func (s *TelegramService) SendMessageWithConfig(config *TelegramConfig, text string) error {
	// No poller: the bot only pushes messages
	bot, err := tele.NewBot(tele.Settings{
		Token: config.Token,
	})
	if err != nil {
		return fmt.Errorf("telegram bot init failed: %v", err)
	}

	_, err = bot.Send(tele.ChatID(config.ChatID), text, tele.ModeHTML)
	if err != nil {
		return fmt.Errorf("telegram send failed: %v", err)
	}
	return nil
}

// TestConnection verifies the token by hitting getMe
func (s *TelegramService) TestConnection(config *TelegramConfig) error {
	bot, err := tele.NewBot(tele.Settings{
		Token: config.Token,
	})
	if err != nil {
		return fmt.Errorf("telegram bot init failed: %v", err)
	}

	if _, err := bot.ChatByID(config.ChatID); err != nil {
		return fmt.Errorf("telegram chat lookup failed: %v", err)
	}
	return nil
}
