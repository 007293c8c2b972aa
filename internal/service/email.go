package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// EmailService delivers verification and password reset codes through Resend.
// In development the client is nil and emails are written to the log instead,
// so local signup works without an API key.
type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appName   string
}

func NewEmailService(apiKey, fromEmail, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appName:   appName,
	}
}

func (s *EmailService) SendVerificationEmail(email, name, code string) error {
	subject, body := verificationEmailTemplate(name, code, s.appName)
	return s.send("verification", email, subject, body, code)
}

func (s *EmailService) SendPasswordResetEmail(email, name, code string) error {
	subject, body := passwordResetEmailTemplate(name, code, s.appName)
	return s.send("password_reset", email, subject, body, code)
}

func (s *EmailService) send(kind, email, subject, body, code string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", email, "subject", subject, "code", code)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{email},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", email)
	}
	return err
}
