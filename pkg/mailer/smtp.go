// Package mailer sends inactivity reminder emails over SMTP with STARTTLS.
package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog"
)

// Config contains SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// Mailer delivers inactivity reminders.
type Mailer struct {
	config Config
	logger zerolog.Logger

	// send is swappable in tests.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// New constructs a mailer.
func New(cfg Config, logger zerolog.Logger) *Mailer {
	if cfg.From == "" {
		cfg.From = cfg.User
	}

	return &Mailer{
		config: cfg,
		logger: logger.With().Str("component", "mailer").Logger(),
		send:   smtp.SendMail,
	}
}

// Notify emails the student an inactivity reminder. A nil return means the
// message was handed to the SMTP server.
func (m *Mailer) Notify(_ context.Context, name, email string) error {
	if m.config.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	auth := smtp.PlainAuth("", m.config.User, m.config.Password, m.config.Host)
	msg := buildReminderMessage(m.config.From, email, name)

	if err := m.send(addr, auth, m.config.From, []string{email}, msg); err != nil {
		m.logger.Warn().Err(err).Str("email", email).Msg("failed to send inactivity email")
		return err
	}

	m.logger.Info().Str("email", email).Msg("inactivity email sent")

	return nil
}

func buildReminderMessage(from, to, name string) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", to))
	b.WriteString("Subject: We Miss You on Codeforces!\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("<html><body>")
	b.WriteString(fmt.Sprintf("<p>Hi %s,</p>", name))
	b.WriteString("<p>We noticed you haven't solved any problems on Codeforces in over a week.<br>")
	b.WriteString("Keep up your practice and continue your progress!</p>")
	b.WriteString("<p>Best regards,<br>Student Progress Management System</p>")
	b.WriteString("</body></html>\r\n")
	return []byte(b.String())
}
