package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/omriShneor/alfred_assistant/internal/llm"
)

// MockCompleter is a mock implementation of llm.Completer
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func (m *MockCompleter) Name() string {
	args := m.Called()
	return args.String(0)
}
