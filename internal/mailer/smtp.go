package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"raisevoice/internal/config"
)

// SMTPMailer sends transactional mail through a plain SMTP relay. Dispatch is
// synchronous and single-attempt; callers decide what a failure means.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	subject := "Reset your RaiseVoice password"
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"We received a request to reset the password for your RaiseVoice account.\r\n"+
			"Open the link below within the next hour to choose a new password:\r\n\r\n"+
			"%s\r\n\r\n"+
			"If you did not request this, you can ignore this email; your password stays unchanged.\r\n",
		name, resetURL,
	)

	return m.send(ctx, to, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
