package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/alfred_assistant/internal/notify"
)

// MockEmailSender is a mock implementation of notify.EmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, msg notify.EmailMessage) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func (m *MockEmailSender) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockEmailSender) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}
