package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/alfred_assistant/internal/weather"
)

// MockWeatherService is a mock implementation of actions.WeatherService
type MockWeatherService struct {
	mock.Mock
}

func (m *MockWeatherService) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockWeatherService) Current(ctx context.Context, location string) (*weather.Conditions, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*weather.Conditions), args.Error(1)
}
