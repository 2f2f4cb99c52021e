package actions

import (
	"github.com/omriShneor/alfred_assistant/internal/intent"
	"github.com/omriShneor/alfred_assistant/internal/weather"
)

// Result is the outcome of one dispatched action. Data is nil on failure.
type Result struct {
	Type    intent.Intent `json:"type"`
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    any           `json:"data"`
}

// CalendarData is returned for a created event
type CalendarData struct {
	EventID    string `json:"eventId"`
	EventLink  string `json:"eventLink"`
	StartTime  string `json:"startTime"`
	CalendarID string `json:"calendarId"`
	TimeZone   string `json:"timeZone"`
}

// EmailData is returned for a sent email
type EmailData struct {
	EmailID string `json:"emailId"`
	To      string `json:"to"`
}

// WeatherData is the current conditions as reported by the provider
type WeatherData = weather.Conditions

// UIData carries a rendered HTML fragment
type UIData struct {
	HTML string `json:"html"`
	Type string `json:"type"`
}

func failed(t intent.Intent, message string) *Result {
	return &Result{Type: t, Success: false, Message: message}
}

func succeeded(t intent.Intent, message string, data any) *Result {
	return &Result{Type: t, Success: true, Message: message, Data: data}
}
