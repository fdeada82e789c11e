package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/printcare/backend/internal/database"
	"github.com/printcare/backend/internal/models"
	"github.com/printcare/backend/internal/security"
)

// EmailService handles sending emails via SMTP
type EmailService struct {
	cipher *security.Cipher
}

// NewEmailService creates a new email service
func NewEmailService(cipher *security.Cipher) *EmailService {
	return &EmailService{cipher: cipher}
}

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	FromName string
	FromAddr string
}

// GetConfig builds the SMTP configuration from the email channel's
// notification settings, decrypting the stored password.
func (s *EmailService) GetConfig() (*EmailConfig, error) {
	var setting models.NotificationSetting
	if err := database.DB.Where("channel = ?", models.ChannelEmail).First(&setting).Error; err != nil {
		return nil, fmt.Errorf("email channel not configured")
	}
	return s.configFromSetting(&setting)
}

func (s *EmailService) configFromSetting(setting *models.NotificationSetting) (*EmailConfig, error) {
	if setting.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP host not configured")
	}

	password := setting.SMTPPassword
	if password != "" && s.cipher != nil {
		decrypted, err := s.cipher.Decrypt(password)
		if err == nil {
			password = decrypted
		}
	}

	fromAddr := setting.FromAddr
	if fromAddr == "" {
		fromAddr = setting.SMTPUsername
	}

	return &EmailConfig{
		Host:     setting.SMTPHost,
		Port:     setting.SMTPPort,
		Username: setting.SMTPUsername,
		Password: password,
		FromName: setting.FromName,
		FromAddr: fromAddr,
	}, nil
}

// SendEmail sends an email using the stored email channel settings
func (s *EmailService) SendEmail(to, subject, body string, isHTML bool) error {
	config, err := s.GetConfig()
	if err != nil {
		return err
	}

	return s.SendEmailWithConfig(config, to, subject, body, isHTML)
}

// SendEmailWithConfig sends an email with specific config (useful for testing)
func (s *EmailService) SendEmailWithConfig(config *EmailConfig, to, subject, body string, isHTML bool) error {
	if config.Host == "" || config.Port == "" {
		return fmt.Errorf("SMTP not configured")
	}

	// Build email headers
	from := config.FromAddr
	if config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", config.FromName, config.FromAddr)
	}

	contentType := "text/plain"
	if isHTML {
		contentType = "text/html"
	}

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: %s; charset=UTF-8\r\n"+
		"\r\n"+
		"%s", from, to, subject, contentType, body)

	addr := fmt.Sprintf("%s:%s", config.Host, config.Port)

	// Determine if we should use TLS
	port := config.Port
	useTLS := port == "465"
	useStartTLS := port == "587" || port == "25"

	var auth smtp.Auth
	if config.Username != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.Username, config.Password, config.Host)
	}

	if useTLS {
		// Direct TLS connection (port 465)
		return s.sendWithTLS(addr, config, auth, to, []byte(msg))
	} else if useStartTLS {
		// STARTTLS connection (port 587)
		return s.sendWithStartTLS(addr, config, auth, to, []byte(msg))
	} else {
		// Plain connection
		return smtp.SendMail(addr, auth, config.FromAddr, []string{to}, []byte(msg))
	}
}

// sendWithTLS sends email using direct TLS (port 465)
func (s *EmailService) sendWithTLS(addr string, config *EmailConfig, auth smtp.Auth, to string, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: config.Host,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("TLS dial failed: %v", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, config.Host)
	if err != nil {
		return fmt.Errorf("SMTP client failed: %v", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %v", err)
		}
	}

	if err := client.Mail(config.FromAddr); err != nil {
		return fmt.Errorf("MAIL FROM failed: %v", err)
	}

	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %v", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %v", err)
	}

	_, err = w.Write(msg)
	if err != nil {
		return fmt.Errorf("Write failed: %v", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("Close failed: %v", err)
	}

	return client.Quit()
}

// sendWithStartTLS sends email using STARTTLS (port 587)
func (s *EmailService) sendWithStartTLS(addr string, config *EmailConfig, auth smtp.Auth, to string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("SMTP dial failed: %v", err)
	}
	defer client.Close()

	// Say hello
	if err := client.Hello("localhost"); err != nil {
		return fmt.Errorf("HELLO failed: %v", err)
	}

	// Start TLS
	tlsConfig := &tls.Config{
		ServerName: config.Host,
	}
	if err := client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("STARTTLS failed: %v", err)
	}

	// Authenticate
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %v", err)
		}
	}

	// Send email
	if err := client.Mail(config.FromAddr); err != nil {
		return fmt.Errorf("MAIL FROM failed: %v", err)
	}

	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %v", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %v", err)
	}

	_, err = w.Write(msg)
	if err != nil {
		return fmt.Errorf("Write failed: %v", err)
	}

	err = w.Close()
	if err != nil {
		return fmt.Errorf("Close failed: %v", err)
	}

	return client.Quit()
}

// TestConnection tests the SMTP connection
func (s *EmailService) TestConnection(config *EmailConfig) error {
	if config.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if config.Port == "" {
		return fmt.Errorf("SMTP port is required")
	}

	addr := fmt.Sprintf("%s:%s", config.Host, config.Port)
	port := config.Port

	if port == "465" {
		// Test TLS connection
		tlsConfig := &tls.Config{
			ServerName: config.Host,
		}
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("TLS connection failed: %v", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, config.Host)
		if err != nil {
			return fmt.Errorf("SMTP client failed: %v", err)
		}
		defer client.Close()

		if config.Username != "" && config.Password != "" {
			auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("Authentication failed: %v", err)
			}
		}

		return client.Quit()
	} else {
		// Test STARTTLS or plain connection
		client, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("Connection failed: %v", err)
		}
		defer client.Close()

		if port == "587" || port == "25" {
			tlsConfig := &tls.Config{
				ServerName: config.Host,
			}
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("STARTTLS failed: %v", err)
			}
		}

		if config.Username != "" && config.Password != "" {
			auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("Authentication failed: %v", err)
			}
		}

		return client.Quit()
	}
}
