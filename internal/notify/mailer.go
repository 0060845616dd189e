// Package notify delivers fire-and-forget customer notifications. Delivery
// failures are logged and swallowed: a lost email must never fail or roll back
// the order that triggered it.
package notify

import (
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the mail server settings. It is injected explicitly rather
// than read from ambient globals.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender address used unless an email overrides it.
	From string
}

// Email is a single outbound message.
type Email struct {
	To      string
	Subject string
	HTML    string
	// From overrides the configured sender when non-empty.
	From string
}

// Sender delivers a single email synchronously.
type Sender interface {
	Send(e Email) error
}

// SMTPSender delivers email over SMTP via gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates an SMTPSender from the given configuration.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers one message, dialing a fresh SMTP connection.
func (s *SMTPSender) Send(e Email) error {
	from := s.from
	if e.From != "" {
		from = e.From
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", e.To)
	m.SetHeader("Subject", e.Subject)
	m.SetBody("text/html", e.HTML)

	return s.dialer.DialAndSend(m)
}
