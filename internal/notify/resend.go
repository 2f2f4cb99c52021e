package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// DefaultFromAddress is Resend's shared sandbox sender
const DefaultFromAddress = "onboarding@resend.dev"

// ResendSender sends email via Resend API
type ResendSender struct {
	client      *resend.Client
	fromAddress string
	logger      *zap.Logger
}

// NewResendSender creates a new Resend email sender
func NewResendSender(apiKey, from string, logger *zap.Logger) *ResendSender {
	if apiKey == "" {
		return nil
	}
	if from == "" {
		from = DefaultFromAddress
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResendSender{
		client:      resend.NewClient(apiKey),
		fromAddress: from,
		logger:      logger,
	}
}

// IsConfigured returns true if the sender has server-side config
func (r *ResendSender) IsConfigured() bool {
	return r != nil && r.client != nil && r.fromAddress != ""
}

// Send sends msg and returns the Resend email id
func (r *ResendSender) Send(ctx context.Context, msg EmailMessage) (string, error) {
	if !r.IsConfigured() {
		return "", ErrNotConfigured
	}
	if msg.To == "" {
		return "", fmt.Errorf("no recipient specified")
	}

	from := msg.From
	if from == "" {
		from = r.fromAddress
	}

	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	sent, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		r.logger.Error("resend send failed", zap.Error(err), zap.String("to", msg.To))
		return "", fmt.Errorf("resend send failed: %w", err)
	}

	r.logger.Info("email sent via resend", zap.String("to", msg.To), zap.String("id", sent.Id))
	return sent.Id, nil
}

// Name returns the sender name
func (r *ResendSender) Name() string {
	return "Resend"
}
