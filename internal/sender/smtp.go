package sender

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/google/uuid"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPEmailSender delivers email over plain SMTP. SMTP has no delivery
// receipt, so the provider message id is generated locally to keep the
// collection action ledger referenceable.
type SMTPEmailSender struct {
	cfg SMTPConfig
}

func NewSMTP(cfg SMTPConfig) *SMTPEmailSender {
	return &SMTPEmailSender{cfg: cfg}
}

func (p *SMTPEmailSender) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", to, subject, mime, body))

	if err := smtp.SendMail(addr, auth, p.cfg.From, []string{to}, msg); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}
