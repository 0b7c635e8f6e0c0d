package notifier

import (
	"fmt"
	"net/smtp"

	"github.com/rajivgeraev/polesharing-api/internal/config"
)

// SMTPMailer отправляет письма через SMTP
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer создает SMTPMailer
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Send отправляет письмо одному получателю
func (m *SMTPMailer) Send(to, subject, body string) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("SMTP не сконфигурирован")
	}

	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, body))

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	return smtp.SendMail(addr, auth, m.cfg.From, []string{to}, msg)
}
