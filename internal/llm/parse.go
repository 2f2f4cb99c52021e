package llm

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kaptinlin/jsonrepair"

	"github.com/omriShneor/alfred_assistant/internal/intent"
)

// DefaultReplyMessage is used when the model omits a message
const DefaultReplyMessage = "I processed your request."

// ErrNoJSON is returned when a completion contains no JSON object
var ErrNoJSON = errors.New("no JSON object in completion")

type intentReply struct {
	Intent  string         `json:"intent"`
	Message string         `json:"message"`
	Params  map[string]any `json:"params"`
}

// ParseIntentReply decodes the model's JSON answer into a classification.
// Markdown fences and surrounding prose are ignored and malformed JSON is
// repaired before giving up. Unknown intents become chat.
func ParseIntentReply(text string) (intent.Classification, error) {
	if findJSONStart(text) < 0 {
		return intent.Classification{}, ErrNoJSON
	}
	raw := extractJSON(text)

	var reply intentReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(raw)
		if repairErr != nil {
			return intent.Classification{}, fmt.Errorf("failed to parse intent JSON: %w", err)
		}
		reply = intentReply{}
		if err := json.Unmarshal([]byte(repaired), &reply); err != nil {
			return intent.Classification{}, fmt.Errorf("failed to parse repaired intent JSON: %w", err)
		}
	}

	c := intent.Classification{
		Intent:  intent.Parse(reply.Intent),
		Message: reply.Message,
		Params:  intent.Params(reply.Params),
	}
	if c.Message == "" {
		c.Message = DefaultReplyMessage
	}
	if c.Params == nil {
		c.Params = intent.Params{}
	}
	return c, nil
}

// extractJSON attempts to extract JSON from a response that might be wrapped in markdown
func extractJSON(text string) string {
	start := 0
	if idx := findJSONStart(text); idx >= 0 {
		start = idx
	}

	end := len(text)
	if idx := findJSONEnd(text, start); idx >= 0 {
		end = idx + 1
	}

	return text[start:end]
}

func findJSONStart(text string) int {
	for i := 0; i < len(text); i++ {
		if text[i] == '{' {
			return i
		}
	}
	return -1
}

// findJSONEnd finds the brace closing the object at start, skipping braces
// inside string literals.
func findJSONEnd(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
