package intent

import (
	"fmt"
	"strconv"
	"strings"
)

// Intent is the action category a chat message is classified into
type Intent string

const (
	Calendar Intent = "calendar"
	Email    Intent = "email"
	Weather  Intent = "weather"
	UI       Intent = "ui"
	Chat     Intent = "chat"
)

// Parse maps a raw intent name onto the closed set, defaulting to Chat
func Parse(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case Calendar:
		return Calendar
	case Email:
		return Email
	case Weather:
		return Weather
	case UI:
		return UI
	default:
		return Chat
	}
}

// IsAction reports whether the intent dispatches a side-effecting action
func (i Intent) IsAction() bool {
	return i != Chat && i != ""
}

// Params is the loosely-typed argument bag extracted for an intent.
// Values come either from the fallback classifier (strings) or from
// decoded LLM JSON (strings, numbers, nested objects).
type Params map[string]any

// String returns the value for key as a string. JSON numbers and booleans
// are stringified; absent and null values return "".
func (p Params) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// StringOr returns the string value for key, or def when it is empty
func (p Params) StringOr(key, def string) string {
	if s := p.String(key); s != "" {
		return s
	}
	return def
}

// Map returns a nested object value, or an empty map
func (p Params) Map(key string) map[string]any {
	if m, ok := p[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// Classification is an intent with its parameters and the assistant's reply text
type Classification struct {
	Intent  Intent `json:"intent"`
	Message string `json:"message"`
	Params  Params `json:"params"`
}
