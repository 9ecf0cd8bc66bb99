package notifier

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/taskboard/taskboard-api/internal/config"
)

// Mailer delivers outbound notifications. Delivery is an external
// collaborator: callers fire and forget, failures are logged only.
type Mailer interface {
	SendPasswordReset(to, resetLink string) error
}

// New returns an SMTP-backed mailer when SMTP is configured and a
// log-only mailer otherwise.
func New(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return &LogMailer{}
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		sender:   cfg.SMTPSender,
	}
}

// SMTPMailer sends mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	sender   string
}

// SendPasswordReset sends the reset link to the user.
func (m *SMTPMailer) SendPasswordReset(to, resetLink string) error {
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: Reset your password\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n"+
			"<p>You requested a password reset.</p>"+
			"<p><a href=%q>Click here to reset your password</a></p>"+
			"<p>This link expires in 15 minutes.</p>\r\n",
		m.sender, to, resetLink,
	)

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	addr := m.host + ":" + m.port
	if err := smtp.SendMail(addr, auth, m.sender, []string{to}, []byte(body)); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// LogMailer writes the reset link to the log instead of sending mail.
// Used in development when no SMTP relay is configured.
type LogMailer struct{}

// SendPasswordReset logs the reset link.
func (m *LogMailer) SendPasswordReset(to, resetLink string) error {
	slog.Info("password reset requested (mailer not configured)", "to", to, "link", resetLink)
	return nil
}
