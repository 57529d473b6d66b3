package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// EmailService sends transactional mail through Resend. In development
// (or when no API key is configured) sends are logged instead, so the
// flows stay testable without credentials.
type EmailService struct {
	client    *resend.Client
	fromEmail string
	appURL    string
	appName   string
	isDev     bool
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		appURL:    appURL,
		appName:   appName,
		isDev:     isDev,
	}
}

func (s *EmailService) SendWelcomeEmail(email, username string) error {
	subject, body := welcomeEmailTemplate(username, s.appURL, s.appName)
	return s.send("welcome", email, subject, body)
}

func (s *EmailService) SendPasswordResetEmail(email, token, username string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s&email=%s", s.appURL, token, email)
	subject, body := passwordResetEmailTemplate(username, resetURL, s.appName)
	return s.send("password_reset", email, subject, body)
}

func (s *EmailService) send(kind, to, subject, body string) error {
	if s.isDev || s.client == nil {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject)
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", to)
	}
	return err
}
