package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

// Email mails the summary through an smtp server.
type Email struct {
	smtp SmtpConfig
	to   []string

	// send is swapped in tests
	send func(mail *email.Email, addr string, auth smtp.Auth) error
}

func NewEmail(cfg SmtpConfig, to []string) Email {
	return Email{
		smtp: cfg,
		to:   to,
		send: func(mail *email.Email, addr string, auth smtp.Auth) error {
			return mail.Send(addr, auth)
		},
	}
}

func (Email) Name() string {
	return "email"
}

func (e Email) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(e.to) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Tieba Assist <%s>", e.smtp.EmailAddress)
	mail.To = e.to
	mail.Subject = subjectOf(text)
	mail.Text = []byte(text)

	addr := fmt.Sprintf("%s:%d", e.smtp.Server, e.smtp.Port)
	err := e.send(
		mail, addr,
		smtp.PlainAuth("", e.smtp.EmailAddress, e.smtp.Password, e.smtp.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = e.send(mail, addr, nil)
	}
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// subjectOf uses the first line of the summary as the subject.
func subjectOf(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	line = strings.TrimSpace(line)
	if line == "" {
		return "Tieba Assist"
	}
	return line
}
