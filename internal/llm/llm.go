package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"

	// ContextWindow is how many trailing conversation turns are sent to the model
	ContextWindow = 3

	// emptyReply stands in for a completion with no content
	emptyReply = `{"intent":"chat","message":"I understand."}`
)

// Message is one turn of the conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer produces the raw text completion for a conversation. A leading
// system-role message, if present, is the system prompt.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	Name() string
}

// APIError is a non-2xx response from a model provider
type APIError struct {
	StatusCode int
	Body       string
	// KeyEnv names the setting holding the provider's API key
	KeyEnv string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// BuildConversation prepends the system prompt to the trailing ContextWindow
// turns of history.
func BuildConversation(history []Message) []Message {
	tail := history
	if len(tail) > ContextWindow {
		tail = tail[len(tail)-ContextWindow:]
	}
	out := make([]Message, 0, len(tail)+1)
	out = append(out, Message{Role: RoleSystem, Content: SystemPrompt})
	return append(out, tail...)
}

// Describe turns a completion error into the diagnostic shown to the user
func Describe(err error) string {
	const generic = "I encountered an issue with the AI service."

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return generic
	}

	var body struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(apiErr.Body), &body) == nil {
		if body.Error != nil && body.Error.Message != "" {
			return "AI Service Error: " + body.Error.Message
		}
		return generic
	}

	text := apiErr.Body
	switch {
	case apiErr.StatusCode == 401 || strings.Contains(text, "401") || strings.Contains(text, "Unauthorized"):
		keyEnv := apiErr.KeyEnv
		if keyEnv == "" {
			keyEnv = "API key"
		}
		return fmt.Sprintf("Invalid API key. Please check your %s configuration.", keyEnv)
	case apiErr.StatusCode == 429 || strings.Contains(text, "429") || strings.Contains(text, "rate limit"):
		return "Rate limit exceeded. Please try again in a moment."
	default:
		return "AI Service Error: " + truncate(text, 100)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
