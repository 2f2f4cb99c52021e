package actions

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/alfred_assistant/internal/intent"
	"github.com/omriShneor/alfred_assistant/internal/metrics"
	"github.com/omriShneor/alfred_assistant/internal/notify"
)

const emailNotConfigured = "Email integration not configured. Please set up RESEND_API_KEY or SENDGRID_API_KEY in .env.local"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func (d *Dispatcher) sendEmail(ctx context.Context, params intent.Params, log *zap.Logger) *Result {
	sender := d.deps.Email
	if sender == nil || !sender.IsConfigured() {
		return failed(intent.Email, emailNotConfigured)
	}

	to := params.StringOr("to", d.cfg.DefaultRecipient)
	if !emailPattern.MatchString(to) {
		return failed(intent.Email, fmt.Sprintf("Invalid email address: %s. Please provide a valid email address.", to))
	}

	msg := notify.EmailMessage{
		From:    d.cfg.FromEmail,
		To:      to,
		Subject: params.StringOr("subject", intent.DefaultSubject),
	}
	msg.Text = params.StringOr("body", intent.DefaultEmailBody)
	msg.HTML = "<p>" + html.EscapeString(msg.Text) + "</p>"

	log.Info("sending email",
		zap.String("provider", sender.Name()),
		zap.String("to", to),
		zap.String("subject", msg.Subject))

	began := time.Now()
	id, err := sender.Send(ctx, msg)
	metrics.RecordExternalCall("email", err, time.Since(began))
	if err != nil {
		log.Error("email send failed", zap.String("provider", sender.Name()), zap.Error(err))
		return failed(intent.Email, d.emailErrorMessage(sender.Name(), err))
	}

	log.Info("email sent", zap.String("email_id", id), zap.String("to", to))
	return succeeded(intent.Email,
		fmt.Sprintf("Email sent successfully to %s!", to),
		EmailData{EmailID: id, To: to})
}

func (d *Dispatcher) emailErrorMessage(provider string, err error) string {
	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "unauthorized"):
		return fmt.Sprintf("%s API: Invalid API key. Please check your %s in .env.local", provider, providerKeyEnv(provider))
	case strings.Contains(lower, "domain"), strings.Contains(lower, "not verified"):
		from := d.cfg.FromEmail
		if from == "" {
			from = notify.DefaultFromAddress
		}
		return fmt.Sprintf("%s API: Domain not verified. The \"from\" email (%s) must use a verified domain. Check your %s dashboard or use %s for testing.",
			provider, from, provider, notify.DefaultFromAddress)
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "quota"):
		return fmt.Sprintf("%s API: Rate limit exceeded. Please try again later.", provider)
	default:
		return fmt.Sprintf("%s API Error: %s", provider, msg)
	}
}

func providerKeyEnv(provider string) string {
	if strings.EqualFold(provider, "sendgrid") {
		return "SENDGRID_API_KEY"
	}
	return "RESEND_API_KEY"
}
