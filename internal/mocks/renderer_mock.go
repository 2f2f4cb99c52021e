package mocks

import "github.com/stretchr/testify/mock"

// MockRenderer is a mock implementation of actions.Renderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(kind string, data map[string]any) (string, error) {
	args := m.Called(kind, data)
	return args.String(0), args.Error(1)
}
