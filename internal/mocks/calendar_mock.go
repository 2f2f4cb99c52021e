package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	"github.com/omriShneor/alfred_assistant/internal/gcal"
)

// MockCalendarService is a mock implementation of actions.CalendarService
// and server.CalendarClient
type MockCalendarService struct {
	mock.Mock
}

func (m *MockCalendarService) Mode() gcal.Mode {
	args := m.Called()
	return args.Get(0).(gcal.Mode)
}

func (m *MockCalendarService) RefreshToken() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCalendarService) CreateEvent(ctx context.Context, calendarID string, input gcal.EventInput) (*gcal.CreatedEvent, error) {
	args := m.Called(ctx, calendarID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gcal.CreatedEvent), args.Error(1)
}

func (m *MockCalendarService) AuthURL(state string) (string, error) {
	args := m.Called(state)
	return args.String(0), args.Error(1)
}

func (m *MockCalendarService) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth2.Token), args.Error(1)
}

func (m *MockCalendarService) CheckToken(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCalendarService) ListCalendars(ctx context.Context) ([]gcal.CalendarInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gcal.CalendarInfo), args.Error(1)
}

func (m *MockCalendarService) PrimaryCalendar(ctx context.Context) (*gcal.CalendarInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gcal.CalendarInfo), args.Error(1)
}

func (m *MockCalendarService) ListRecentEvents(ctx context.Context, calendarID string, since time.Time, max int64) ([]gcal.EventSummary, error) {
	args := m.Called(ctx, calendarID, since, max)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gcal.EventSummary), args.Error(1)
}
