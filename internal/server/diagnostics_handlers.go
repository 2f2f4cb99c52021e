package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/alfred_assistant/internal/config"
	"github.com/omriShneor/alfred_assistant/internal/gcal"
	"github.com/omriShneor/alfred_assistant/internal/logger"
	"github.com/omriShneor/alfred_assistant/internal/notify"
)

// EnvStatus reports which integrations have credentials without exposing them
type EnvStatus struct {
	HasOpenRouter         bool   `json:"hasOpenRouter"`
	HasAnthropic          bool   `json:"hasAnthropic"`
	LLMProvider           string `json:"llmProvider"`
	HasGoogleClientID     bool   `json:"hasGoogleClientId"`
	HasGoogleClientSecret bool   `json:"hasGoogleClientSecret"`
	HasGoogleRefreshToken bool   `json:"hasGoogleRefreshToken"`
	HasServiceAccount     bool   `json:"hasServiceAccount"`
	HasWeatherAPI         bool   `json:"hasWeatherApi"`
	EmailProvider         string `json:"emailProvider"`
	HasEmailAPIKey        bool   `json:"hasEmailApiKey"`
	OpenRouterPrefix      string `json:"openRouterPrefix,omitempty"`
}

// NewEnvStatus summarises cfg for the test-env endpoint
func NewEnvStatus(cfg *config.Config) EnvStatus {
	status := EnvStatus{
		HasOpenRouter:         cfg.OpenRouterAPIKey != "",
		HasAnthropic:          cfg.AnthropicAPIKey != "",
		LLMProvider:           cfg.LLMProvider,
		HasGoogleClientID:     cfg.GoogleClientID != "",
		HasGoogleClientSecret: cfg.GoogleClientSecret != "",
		HasGoogleRefreshToken: cfg.GoogleRefreshToken != "",
		HasServiceAccount:     cfg.HasGoogleServiceAccount(),
		HasWeatherAPI:         cfg.WeatherAPIKey != "",
		EmailProvider:         cfg.EmailProvider,
	}
	if cfg.EmailProvider == "sendgrid" {
		status.HasEmailAPIKey = cfg.SendGridAPIKey != ""
	} else {
		status.HasEmailAPIKey = cfg.ResendAPIKey != ""
	}
	if cfg.OpenRouterAPIKey != "" {
		status.OpenRouterPrefix = preview(cfg.OpenRouterAPIKey, 10) + "..."
	}
	return status
}

func (s *Server) handleTestEnv(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.env)
}

func (s *Server) emailKeyEnv() string {
	if s.env.EmailProvider == "sendgrid" {
		return "SENDGRID_API_KEY"
	}
	return "RESEND_API_KEY"
}

func (s *Server) emailConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

func (s *Server) senderAddress() string {
	if s.fromEmail != "" {
		return s.fromEmail
	}
	return notify.DefaultFromAddress
}

func (s *Server) handleTestEmailStatus(w http.ResponseWriter, r *http.Request) {
	if !s.emailConfigured() {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"error":     s.emailKeyEnv() + " not configured",
			"hasApiKey": false,
		})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"hasApiKey": true,
		"provider":  s.email.Name(),
		"fromEmail": s.senderAddress(),
		"message":   fmt.Sprintf("%s API key is configured. Try sending an email through the chat to test.", s.email.Name()),
		"note":      fmt.Sprintf("If emails fail, check: 1) API key is correct, 2) Domain is verified in the %s dashboard, 3) the from address uses a verified domain (or use %s for testing)", s.email.Name(), notify.DefaultFromAddress),
	})
}

type testEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (s *Server) handleTestEmailSend(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !s.emailConfigured() {
		s.respondError(w, http.StatusBadRequest, s.emailKeyEnv()+" not configured")
		return
	}
	if req.To == "" {
		s.respondError(w, http.StatusBadRequest, "Email address (to) is required")
		return
	}

	if req.Subject == "" {
		req.Subject = "Test Email from AI Agent"
	}
	if req.Body == "" {
		req.Body = "This is a test email from your AI Agent."
	}

	id, err := s.email.Send(r.Context(), notify.EmailMessage{
		From:    s.fromEmail,
		To:      req.To,
		Subject: req.Subject,
		Text:    req.Body,
		HTML:    "<p>" + template.HTMLEscapeString(req.Body) + "</p>",
	})
	if err != nil {
		logger.WithRequest(r.Context(), s.logger).Warn("test email failed", zap.Error(err))
		s.respondJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "Failed to send email",
			"message": err.Error(),
		})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"emailId": id,
		"message": "Email sent successfully to " + req.To,
	})
}

func (s *Server) handleTestCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	hasOAuth := s.gcalClient != nil && s.gcalClient.Mode() == gcal.ModeOAuth
	hasRefreshToken := hasOAuth && s.gcalClient.RefreshToken() != ""
	if !hasOAuth || !hasRefreshToken {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"error":           "OAuth credentials not configured",
			"hasOAuth":        hasOAuth,
			"hasRefreshToken": hasRefreshToken,
		})
		return
	}

	if err := s.gcalClient.CheckToken(ctx); err != nil {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"error":      "Token refresh failed",
			"message":    err.Error(),
			"suggestion": "Re-authorize at /api/auth/google",
		})
		return
	}

	calendars, err := s.gcalClient.ListCalendars(ctx)
	if err != nil {
		s.calendarTestFailed(w, r, err)
		return
	}
	primary, err := s.gcalClient.PrimaryCalendar(ctx)
	if err != nil {
		s.calendarTestFailed(w, r, err)
		return
	}
	events, err := s.gcalClient.ListRecentEvents(ctx, gcal.DefaultCalendarID, time.Now().Add(-7*24*time.Hour), 10)
	if err != nil {
		s.calendarTestFailed(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"tokenValid":      true,
		"primaryCalendar": primary,
		"calendars":       calendars,
		"recentEvents":    events,
	})
}

func (s *Server) calendarTestFailed(w http.ResponseWriter, r *http.Request, err error) {
	logger.WithRequest(r.Context(), s.logger).Error("calendar test failed", zap.Error(err))
	s.respondJSON(w, http.StatusInternalServerError, map[string]string{
		"error":   "Calendar test failed",
		"message": err.Error(),
	})
}
