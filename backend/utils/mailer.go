package utils

import (
	"log"
	"strconv"

	"gopkg.in/gomail.v2"

	"clonecademy/backend/config"
)

// Mailer sends platform mail (moderator requests, password resets). Delivery
// failures are reported to the caller; nothing here retries.
type Mailer interface {
	Send(to []string, subject, body string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewMailer returns an SMTP mailer, or a log-only mailer when no SMTP host
// is configured (local development, tests).
func NewMailer(cfg *config.Config, logger *log.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return &logMailer{logger: logger}
	}
	port, err := strconv.Atoi(cfg.SMTPPort)
	if err != nil {
		port = 587
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, port, cfg.SMTPUser, cfg.SMTPPass),
		from:   cfg.MailFrom,
	}
}

func (m *smtpMailer) Send(to []string, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return m.dialer.DialAndSend(msg)
}

type logMailer struct {
	logger *log.Logger
}

func (m *logMailer) Send(to []string, subject, body string) error {
	m.logger.Printf("mail (not sent, SMTP unconfigured) to=%v subject=%q", to, subject)
	return nil
}
