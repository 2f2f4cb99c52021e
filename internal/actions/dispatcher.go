package actions

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/omriShneor/alfred_assistant/internal/gcal"
	"github.com/omriShneor/alfred_assistant/internal/intent"
	"github.com/omriShneor/alfred_assistant/internal/logger"
	"github.com/omriShneor/alfred_assistant/internal/metrics"
	"github.com/omriShneor/alfred_assistant/internal/notify"
	"github.com/omriShneor/alfred_assistant/internal/timeutil"
	"github.com/omriShneor/alfred_assistant/internal/weather"
)

const (
	// DefaultRecipient is used when an email intent names nobody
	DefaultRecipient = "demo@example.com"
	// DefaultTimeZone is reported to Google when the process zone has no IANA name
	DefaultTimeZone = "America/New_York"
	defaultBaseURL  = "http://localhost:3000"

	actionFailedMessage = "Action failed. Please check your API keys in environment variables."
)

// CalendarService creates events in Google Calendar
type CalendarService interface {
	Mode() gcal.Mode
	RefreshToken() string
	CreateEvent(ctx context.Context, calendarID string, input gcal.EventInput) (*gcal.CreatedEvent, error)
}

// WeatherService looks up current conditions
type WeatherService interface {
	IsConfigured() bool
	Current(ctx context.Context, location string) (*weather.Conditions, error)
}

// Renderer turns a widget type and its data into HTML
type Renderer interface {
	Render(kind string, data map[string]any) (string, error)
}

// Config holds the per-deployment settings actions need
type Config struct {
	CalendarID string
	// TimeZone is an IANA name; empty means the process zone
	TimeZone string
	// BaseURL is where this service is reachable, used in re-authorization hints
	BaseURL          string
	DefaultRecipient string
	FromEmail        string
}

// Deps are the collaborators actions call out to. Any of them may be nil,
// in which case the matching action reports itself as not configured.
type Deps struct {
	Calendar CalendarService
	Email    notify.EmailSender
	Weather  WeatherService
	UI       Renderer
	Now      func() time.Time
}

// Dispatcher runs the action matching a classified intent
type Dispatcher struct {
	cfg      Config
	deps     Deps
	location *time.Location
	zoneName string
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher with defaults filled in
func NewDispatcher(cfg Config, deps Deps, logger *zap.Logger) *Dispatcher {
	if cfg.CalendarID == "" {
		cfg.CalendarID = gcal.DefaultCalendarID
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.DefaultRecipient == "" {
		cfg.DefaultRecipient = DefaultRecipient
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	loc, fellBack := timeutil.ResolveLocation(cfg.TimeZone)
	if fellBack && cfg.TimeZone != "" {
		logger.Warn("unknown time zone, using process zone", zap.String("time_zone", cfg.TimeZone))
	}

	return &Dispatcher{
		cfg:      cfg,
		deps:     deps,
		location: loc,
		zoneName: timeutil.ZoneName(loc, DefaultTimeZone),
		logger:   logger,
	}
}

// Dispatch runs the action for c and returns its result, or nil for chat.
// A panicking action is reported as a failed result.
func (d *Dispatcher) Dispatch(ctx context.Context, c intent.Classification) (result *Result) {
	if !c.Intent.IsAction() {
		return nil
	}
	log := logger.WithRequest(ctx, d.logger).With(zap.String("action", string(c.Intent)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("action panicked", zap.Any("panic", r))
			metrics.RecordAction(string(c.Intent), "panic")
			result = failed(c.Intent, actionFailedMessage)
		}
	}()

	switch c.Intent {
	case intent.Calendar:
		result = d.createCalendarEvent(ctx, c.Params, log)
	case intent.Email:
		result = d.sendEmail(ctx, c.Params, log)
	case intent.Weather:
		result = d.getWeather(ctx, c.Params, log)
	case intent.UI:
		result = d.generateUI(c.Params, log)
	default:
		return nil
	}

	outcome := "success"
	if !result.Success {
		outcome = "failed"
	}
	metrics.RecordAction(string(c.Intent), outcome)
	return result
}

func (d *Dispatcher) authURL() string {
	return fmt.Sprintf("%s/api/auth/google", d.cfg.BaseURL)
}
