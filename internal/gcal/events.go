package gcal

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
)

// DefaultCalendarID is the authorizing user's main calendar
const DefaultCalendarID = "primary"

// EventInput represents the input for creating a calendar event
type EventInput struct {
	Summary     string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	// TimeZone is the IANA zone sent alongside both timestamps
	TimeZone string
}

// CreatedEvent is what Google returns for an inserted event
type CreatedEvent struct {
	ID             string
	HTMLLink       string
	OrganizerEmail string
}

// EventSummary is a compact view of an existing event
type EventSummary struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Start    string `json:"start"`
	HTMLLink string `json:"htmlLink"`
}

// CreateEvent inserts an event and returns its id and link
func (c *Client) CreateEvent(ctx context.Context, calendarID string, input EventInput) (*CreatedEvent, error) {
	service, err := c.calendarService(ctx)
	if err != nil {
		return nil, err
	}

	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start: &calendar.EventDateTime{
			DateTime: input.StartTime.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.EndTime.Format(time.RFC3339),
			TimeZone: input.TimeZone,
		},
	}

	c.logger.Info("creating calendar event",
		zap.String("calendar_id", calendarID),
		zap.String("summary", event.Summary),
		zap.String("start", event.Start.DateTime),
		zap.String("time_zone", input.TimeZone))

	created, err := service.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	result := &CreatedEvent{
		ID:       created.Id,
		HTMLLink: created.HtmlLink,
	}
	if created.Organizer != nil {
		result.OrganizerEmail = created.Organizer.Email
	}

	c.logger.Info("calendar event created",
		zap.String("event_id", result.ID),
		zap.String("organizer", result.OrganizerEmail))

	return result, nil
}

// ListRecentEvents returns up to max single events starting after since
func (c *Client) ListRecentEvents(ctx context.Context, calendarID string, since time.Time, max int64) ([]EventSummary, error) {
	service, err := c.calendarService(ctx)
	if err != nil {
		return nil, err
	}

	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	events, err := service.Events.List(calendarID).
		TimeMin(since.Format(time.RFC3339)).
		MaxResults(max).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	result := make([]EventSummary, 0, len(events.Items))
	for _, item := range events.Items {
		if item == nil {
			continue
		}
		summary := EventSummary{
			ID:       item.Id,
			Summary:  item.Summary,
			HTMLLink: item.HtmlLink,
		}
		if item.Start != nil {
			summary.Start = item.Start.DateTime
			if summary.Start == "" {
				summary.Start = item.Start.Date
			}
		}
		result = append(result, summary)
	}

	return result, nil
}
