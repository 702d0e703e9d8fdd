package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client       *resend.Client
	fromEmail    string
	supportEmail string
	isDev        bool
	appURL       string
	appName      string
}

func NewEmailService(apiKey, fromEmail, supportEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:       client,
		fromEmail:    fromEmail,
		supportEmail: supportEmail,
		isDev:        isDev,
		appURL:       appURL,
		appName:      appName,
	}
}

func (s *EmailService) SendMagicLinkEmail(email, token, name string) error {
	magicURL := fmt.Sprintf("%s/auth/magic-link/%s", s.appURL, token)
	subject, body := magicLinkEmailTemplate(magicURL, s.appName)
	return s.send("magic_link", email, subject, body, "")
}

func (s *EmailService) SendPasswordResetEmail(email, token, name string) error {
	resetURL := fmt.Sprintf("%s/auth/reset-password/%s", s.appURL, token)
	subject, body := passwordResetEmailTemplate(resetURL, s.appName)
	return s.send("password_reset", email, subject, body, "")
}

func (s *EmailService) SendWelcomeEmail(email, name string) error {
	chatURL := fmt.Sprintf("%s/chat", s.appURL)
	subject, body := welcomeEmailTemplate(name, chatURL, s.appName)
	return s.send("welcome", email, subject, body, "")
}

func (s *EmailService) SendAccountDeletedEmail(email, name string) error {
	subject, body := accountDeletedEmailTemplate(name, s.appName)
	return s.send("account_deleted", email, subject, body, "")
}

// SendSupportEmail relays a support request to the support inbox. The
// sender's address goes in Reply-To so support can answer directly.
func (s *EmailService) SendSupportEmail(userEmail, topic, message string) error {
	subject, body := supportEmailTemplate(userEmail, topic, message, s.appName)
	return s.send("support", s.supportEmail, subject, body, userEmail)
}

func (s *EmailService) send(emailType, to, subject, body, replyTo string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", emailType, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}
	if replyTo != "" {
		params.ReplyTo = replyTo
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", emailType, "to", to)
	}
	return err
}
