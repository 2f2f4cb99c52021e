package actions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"

	"github.com/omriShneor/alfred_assistant/internal/gcal"
	"github.com/omriShneor/alfred_assistant/internal/intent"
	"github.com/omriShneor/alfred_assistant/internal/metrics"
	"github.com/omriShneor/alfred_assistant/internal/timeutil"
)

const calendarNotConfigured = "Calendar integration not configured. Please set up Google Calendar API credentials (either OAuth or Service Account)."

func (d *Dispatcher) createCalendarEvent(ctx context.Context, params intent.Params, log *zap.Logger) *Result {
	mode := gcal.ModeNone
	if d.deps.Calendar != nil {
		mode = d.deps.Calendar.Mode()
	}

	switch mode {
	case gcal.ModeNone:
		return failed(intent.Calendar, calendarNotConfigured)
	case gcal.ModeOAuth:
		if d.deps.Calendar.RefreshToken() == "" {
			return failed(intent.Calendar, fmt.Sprintf(
				"Google Calendar OAuth: Missing refresh token. Please visit %s to authorize and get a refresh token, then add GOOGLE_REFRESH_TOKEN to your .env.local file.",
				d.authURL()))
		}
	}

	now := d.deps.Now().In(d.location)
	start, end := timeutil.ResolveEventWindow(params.String("date"), params.String("time"), now)

	input := gcal.EventInput{
		Summary:     params.StringOr("title", intent.DefaultTitle),
		Description: params.String("description"),
		StartTime:   start,
		EndTime:     end,
		TimeZone:    d.zoneName,
	}

	began := time.Now()
	event, err := d.deps.Calendar.CreateEvent(ctx, d.cfg.CalendarID, input)
	metrics.RecordExternalCall("calendar", err, time.Since(began))
	if err != nil {
		log.Error("calendar event creation failed", zap.Error(err))
		return failed(intent.Calendar, d.calendarErrorMessage(err))
	}

	log.Info("calendar event created",
		zap.String("event_id", event.ID),
		zap.String("calendar_id", d.cfg.CalendarID),
		zap.Time("start", start))

	return succeeded(intent.Calendar,
		fmt.Sprintf("Calendar event %q created successfully! Click the link below to view it.", input.Summary),
		CalendarData{
			EventID:    event.ID,
			EventLink:  event.HTMLLink,
			StartTime:  start.UTC().Format("2006-01-02T15:04:05.000Z"),
			CalendarID: d.cfg.CalendarID,
			TimeZone:   d.zoneName,
		})
}

func (d *Dispatcher) calendarErrorMessage(err error) string {
	if errors.Is(err, gcal.ErrInvalidGrant) {
		return fmt.Sprintf("OAuth token expired or invalid. Please re-authorize at %s to get a new refresh token.", d.authURL())
	}
	if errors.Is(err, gcal.ErrNotConfigured) {
		return calendarNotConfigured
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return d.calendarAuthFailed()
		case http.StatusForbidden:
			return calendarPermissionDenied
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, gcal.ErrMissingRefreshToken),
		strings.Contains(msg, "invalid_grant"),
		strings.Contains(msg, "refresh_token"):
		return fmt.Sprintf("Google Calendar: Missing or invalid refresh token. Please visit %s to authorize and get a refresh token.", d.authURL())
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "401"):
		return d.calendarAuthFailed()
	case strings.Contains(msg, "403"), strings.Contains(msg, "permission"):
		return calendarPermissionDenied
	default:
		return "Google Calendar Error: " + err.Error()
	}
}

const calendarPermissionDenied = "Google Calendar: Permission denied. Make sure you authorized calendar access."

func (d *Dispatcher) calendarAuthFailed() string {
	return "Google Calendar: Authentication failed. Please check your OAuth credentials or re-authorize at " + d.authURL()
}
