package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// EmailConfig holds SMTP settings for the email channel.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email sends one message per event over SMTP.
type Email struct {
	cfg    EmailConfig
	sender mailSender
}

// NewEmail creates an email channel.
func NewEmail(cfg EmailConfig) *Email {
	return &Email{
		cfg:    cfg,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *Email) Name() string { return "email" }

func (m *Email) Send(ctx context.Context, e domain.Event) error {
	if len(m.cfg.To) == 0 {
		return fmt.Errorf("email: no recipients configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.To...)
	msg.SetHeader("Subject", fmt.Sprintf("[coral] %s (%s)", title(e), e.Type))
	msg.SetBody("text/plain", emailBody(e))

	// gomail has no context support; give up waiting when ctx ends.
	done := make(chan error, 1)
	go func() { done <- m.sender.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("email: %w", ctx.Err())
	}
}

func emailBody(e domain.Event) string {
	body := fmt.Sprintf("%s\n\nPlatform: %s\nAccount: %s\nEvent: %s\n",
		e.Summary, e.Platform.Title(), e.Username, e.Type)
	if !e.CreatedAt.IsZero() {
		body += "Detected: " + e.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST") + "\n"
	}
	return body
}
