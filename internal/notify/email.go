package notify

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned by a sender that has no API key
var ErrNotConfigured = errors.New("notify: email sender not configured")

// EmailSender sends a single e-mail and returns the provider's message id.
// Implementations can be swapped (Resend, SendGrid) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) (string, error)
	// Name returns the provider name shown in diagnostics ("Resend", "SendGrid")
	Name() string
	// IsConfigured returns true if the sender has server-side config
	IsConfigured() bool
}

// EmailMessage represents an email to be sent
type EmailMessage struct {
	From    string // Optional, overrides the sender's default from address
	To      string
	ToName  string
	Subject string
	Text    string // Plain text body
	HTML    string
}

// Config selects and configures the e-mail provider
type Config struct {
	Provider       string // "resend" (default) or "sendgrid"
	ResendAPIKey   string
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// NewEmailSender builds the sender for cfg.Provider. It returns nil when the
// selected provider has no API key.
func NewEmailSender(cfg Config, logger *zap.Logger) EmailSender {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "sendgrid":
		if s := NewSendGridSender(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName, logger); s != nil {
			return s
		}
	default:
		if s := NewResendSender(cfg.ResendAPIKey, cfg.FromEmail, logger); s != nil {
			return s
		}
	}
	return nil
}
