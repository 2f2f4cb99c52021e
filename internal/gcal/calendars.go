package gcal

import (
	"context"
	"fmt"
)

// CalendarInfo represents a Google Calendar
type CalendarInfo struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	TimeZone   string `json:"timeZone,omitempty"`
	Primary    bool   `json:"primary,omitempty"`
	AccessRole string `json:"accessRole,omitempty"`
}

// ListCalendars returns all calendars the user has access to
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	service, err := c.calendarService(ctx)
	if err != nil {
		return nil, err
	}

	list, err := service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	var calendars []CalendarInfo
	for _, item := range list.Items {
		calendars = append(calendars, CalendarInfo{
			ID:         item.Id,
			Summary:    item.Summary,
			TimeZone:   item.TimeZone,
			Primary:    item.Primary,
			AccessRole: item.AccessRole,
		})
	}

	return calendars, nil
}

// PrimaryCalendar returns the authorizing user's main calendar
func (c *Client) PrimaryCalendar(ctx context.Context) (*CalendarInfo, error) {
	service, err := c.calendarService(ctx)
	if err != nil {
		return nil, err
	}

	cal, err := service.Calendars.Get(DefaultCalendarID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get primary calendar: %w", err)
	}

	return &CalendarInfo{
		ID:       cal.Id,
		Summary:  cal.Summary,
		TimeZone: cal.TimeZone,
		Primary:  true,
	}, nil
}

// CheckToken refreshes the OAuth access token without calling the Calendar API
func (c *Client) CheckToken(ctx context.Context) error {
	if c.Mode() != ModeOAuth {
		return ErrOAuthNotConfigured
	}
	_, err := c.refreshAccessToken(ctx)
	return err
}
