package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const defaultFromName = "AI Agent Assistant"

// SendGridSender sends emails via SendGrid API
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *zap.Logger
}

// NewSendGridSender creates a new SendGrid email sender
func NewSendGridSender(apiKey, fromEmail, fromName string, logger *zap.Logger) *SendGridSender {
	if apiKey == "" {
		return nil
	}
	if fromName == "" {
		fromName = defaultFromName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger,
	}
}

// IsConfigured returns true if the sender has an API key and a from address
func (s *SendGridSender) IsConfigured() bool {
	return s != nil && s.client != nil && s.fromEmail != ""
}

// Send sends an email via SendGrid. SendGrid returns the message id in the
// X-Message-Id response header.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) (string, error) {
	if !s.IsConfigured() {
		return "", ErrNotConfigured
	}

	fromEmail := msg.From
	if fromEmail == "" {
		fromEmail = s.fromEmail
	}
	from := mail.NewEmail(s.fromName, fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	text := msg.Text
	if text == "" {
		text = msg.Subject
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, text, msg.HTML)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", zap.Error(err), zap.String("to", msg.To))
		return "", fmt.Errorf("sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status",
			zap.Int("status", response.StatusCode),
			zap.String("body", response.Body),
			zap.String("to", msg.To))
		return "", fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}

	var id string
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		id = ids[0]
	}
	s.logger.Info("email sent via sendgrid", zap.String("to", msg.To), zap.Int("status", response.StatusCode))
	return id, nil
}

// Name returns the sender name
func (s *SendGridSender) Name() string {
	return "SendGrid"
}
