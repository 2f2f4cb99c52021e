package testutil

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/omriShneor/alfred_assistant/internal/gcal"
	"github.com/omriShneor/alfred_assistant/internal/notify"
)

// FakeCode is the only authorization code FakeCalendar.Exchange accepts
const FakeCode = "fake-auth-code"

// FakeRefreshToken is the refresh token issued for FakeCode
const FakeRefreshToken = "fake-refresh-token"

// FakeCalendar simulates Google Calendar for testing. It follows the real
// client's token rules: a token saved to the store wins over the configured one.
type FakeCalendar struct {
	mu           sync.Mutex
	mode         gcal.Mode
	refreshToken string
	store        gcal.TokenStore
	createErr    error
	events       []FakeEvent
	calendars    []gcal.CalendarInfo
}

// FakeEvent is an event created through the fake
type FakeEvent struct {
	ID         string
	CalendarID string
	gcal.EventInput
}

// NewFakeCalendar creates an OAuth-mode fake without a refresh token
func NewFakeCalendar(store gcal.TokenStore) *FakeCalendar {
	return &FakeCalendar{
		mode:  gcal.ModeOAuth,
		store: store,
		calendars: []gcal.CalendarInfo{
			{ID: "primary", Summary: "Primary Calendar", TimeZone: "America/New_York", Primary: true, AccessRole: "owner"},
		},
	}
}

// SetMode changes how the fake claims to be authenticated
func (f *FakeCalendar) SetMode(mode gcal.Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = mode
}

// SetRefreshToken sets the configured refresh token
func (f *FakeCalendar) SetRefreshToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshToken = token
}

// FailCreate makes CreateEvent return err until cleared with nil
func (f *FakeCalendar) FailCreate(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

// Events returns all events created so far
func (f *FakeCalendar) Events() []FakeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeEvent{}, f.events...)
}

func (f *FakeCalendar) Mode() gcal.Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *FakeCalendar) RefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.store != nil {
		if token, err := f.store.GetGoogleRefreshToken(); err == nil && token != "" {
			return token
		}
	}
	return f.refreshToken
}

func (f *FakeCalendar) AuthURL(state string) (string, error) {
	if f.Mode() != gcal.ModeOAuth {
		return "", gcal.ErrOAuthNotConfigured
	}
	return "https://accounts.google.com/o/oauth2/auth?access_type=offline&state=" + url.QueryEscape(state), nil
}

func (f *FakeCalendar) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if f.Mode() != gcal.ModeOAuth {
		return nil, gcal.ErrOAuthNotConfigured
	}
	if code != FakeCode {
		return nil, fmt.Errorf("failed to exchange code for token: %w", errors.New("oauth2: \"invalid_grant\""))
	}

	token := &oauth2.Token{
		AccessToken:  "fake-access-token",
		RefreshToken: FakeRefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.store != nil {
		if err := f.store.SaveGoogleToken(token, gcal.OAuthScopes); err != nil {
			return token, fmt.Errorf("failed to save token: %w", err)
		}
	}
	return token, nil
}

func (f *FakeCalendar) CheckToken(ctx context.Context) error {
	if f.Mode() == gcal.ModeOAuth && f.RefreshToken() == "" {
		return gcal.ErrMissingRefreshToken
	}
	return nil
}

func (f *FakeCalendar) CreateEvent(ctx context.Context, calendarID string, input gcal.EventInput) (*gcal.CreatedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode == gcal.ModeNone {
		return nil, gcal.ErrNotConfigured
	}
	if f.createErr != nil {
		return nil, f.createErr
	}

	id := fmt.Sprintf("evt%03d", len(f.events)+1)
	f.events = append(f.events, FakeEvent{ID: id, CalendarID: calendarID, EventInput: input})
	return &gcal.CreatedEvent{
		ID:             id,
		HTMLLink:       "https://www.google.com/calendar/event?eid=" + id,
		OrganizerEmail: "alfred@example.com",
	}, nil
}

func (f *FakeCalendar) ListCalendars(ctx context.Context) ([]gcal.CalendarInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gcal.CalendarInfo{}, f.calendars...), nil
}

func (f *FakeCalendar) PrimaryCalendar(ctx context.Context) (*gcal.CalendarInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calendars {
		if c.Primary {
			info := c
			return &info, nil
		}
	}
	return nil, errors.New("no primary calendar")
}

func (f *FakeCalendar) ListRecentEvents(ctx context.Context, calendarID string, since time.Time, max int64) ([]gcal.EventSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []gcal.EventSummary
	for _, e := range f.events {
		if e.CalendarID != calendarID || e.StartTime.Before(since) {
			continue
		}
		out = append(out, gcal.EventSummary{
			ID:       e.ID,
			Summary:  e.Summary,
			Start:    e.StartTime.Format(time.RFC3339),
			HTMLLink: "https://www.google.com/calendar/event?eid=" + e.ID,
		})
		if int64(len(out)) == max {
			break
		}
	}
	return out, nil
}

// FakeMailbox is an email sender that keeps what it was asked to send
type FakeMailbox struct {
	mu      sync.Mutex
	name    string
	sendErr error
	sent    []notify.EmailMessage
}

// NewFakeMailbox creates a configured sender reporting the given provider name
func NewFakeMailbox(name string) *FakeMailbox {
	return &FakeMailbox{name: name}
}

// FailSend makes Send return err until cleared with nil
func (f *FakeMailbox) FailSend(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

// Sent returns every message accepted so far
func (f *FakeMailbox) Sent() []notify.EmailMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.EmailMessage{}, f.sent...)
}

func (f *FakeMailbox) Send(ctx context.Context, msg notify.EmailMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("msg_%d", len(f.sent)), nil
}

func (f *FakeMailbox) Name() string { return f.name }

func (f *FakeMailbox) IsConfigured() bool { return true }
