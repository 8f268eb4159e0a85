package infra

import (
	"fmt"
	"net/smtp"

	"messbill/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer wraps SMTP configuration for sending notice emails, optionally
// with a statement PDF attached.
type Mailer struct {
	host     string
	port     int
	user     string
	password string
	addr     string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
	}
}

// SendNotice sends a plain-text notice to a member. attachmentPath may be
// empty; when set, the file is attached (monthly statement PDFs).
func (m *Mailer) SendNotice(to, subject, body, attachmentPath string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if attachmentPath != "" {
		if _, err := e.AttachFile(attachmentPath); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", attachmentPath, err)
		}
	}

	auth := smtp.PlainAuth("", m.user, m.password, m.host)
	if err := e.Send(m.addr, auth); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
