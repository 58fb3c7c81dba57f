package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"dictee/internal/config"
	"dictee/internal/i18n"
)

// SESClient is the part of the SES v2 client used to send mail
type SESClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client    SESClient
	fromEmail string
	fromName  string
	enabled   bool
	debug     bool
}

// NewEmailService creates a new email service. Without a sender address the
// service is disabled and every send returns ErrEmailDisabled.
func NewEmailService(ctx context.Context, cfg config.EmailConfig) (*EmailService, error) {
	if cfg.From == "" {
		slog.Info("email service disabled: no sender configured")
		return &EmailService{debug: cfg.Debug}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	slog.Info("email service enabled", "from", cfg.From, "region", cfg.Region)
	return NewEmailServiceWithClient(sesv2.NewFromConfig(awsCfg), cfg), nil
}

// NewEmailServiceWithClient creates an enabled email service on client
func NewEmailServiceWithClient(client SESClient, cfg config.EmailConfig) *EmailService {
	return &EmailService{
		client:    client,
		fromEmail: cfg.From,
		fromName:  cfg.FromName,
		enabled:   true,
		debug:     cfg.Debug,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendShareEmail sends a share link for a dictation, in locale
func (s *EmailService) SendShareEmail(ctx context.Context, toEmail, locale, title, link string) error {
	if !s.enabled {
		slog.Warn("skipping share email: service disabled", "to", toEmail)
		return ErrEmailDisabled
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidRecipient, toEmail, err)
	}

	args := map[string]string{"title": title, "link": link}
	subject := i18n.Format(locale, "email.share_subject", args)
	textBody := i18n.Format(locale, "email.share_body", args)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h1>%s</h1>
	<p><a href="%s">%s</a></p>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(link), html.EscapeString(link))

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = (&mail.Address{Name: s.fromName, Address: s.fromEmail}).String()
	}

	if s.debug {
		slog.Debug("sending email", "from", fromAddress, "to", toEmail, "subject", subject,
			"html_bytes", len(htmlBody), "text_bytes", len(textBody))
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	messageID := ""
	if result != nil && result.MessageId != nil {
		messageID = *result.MessageId
	}
	slog.Info("email sent", "to", toEmail, "subject", subject, "message_id", messageID)
	return nil
}
