package intent

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultTitle     = "Meeting"
	DefaultSubject   = "Message from AI Agent"
	DefaultEmailBody = "This is an automated message from your AI Agent."
	DefaultLocation  = "New York"
	DefaultUIType    = "card"
)

var (
	monthDayPattern = regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	relativePattern = regexp.MustCompile(`(?i)\b(tomorrow|today|next\s+\w+)\b`)
	weekdayPattern  = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|wed|thu|fri|sat|sun)\b`)

	clockPattern    = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	wordTimePattern = regexp.MustCompile(`(?i)\b(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s*(am|pm)\b`)

	titleExplicitPattern = regexp.MustCompile(`(?i)\b(?:about|titled?|for)\s+([^.]+?)(?:\s+on\b|\s+at\b|$)`)
	titleNounPattern     = regexp.MustCompile(`(?i)\b(?:meeting|event)\s+([^.]+?)(?:\s+on\b|\s+at\b|$)`)
	titleAfterPattern    = regexp.MustCompile(`(?i)\b(?:on|at)\s+[^.]+?\s+(?:about|for|meeting|event)\s+([^.]+)`)

	emailAddressPattern = regexp.MustCompile(`([a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	subjectPattern      = regexp.MustCompile(`(?i)subject[:\s]+["']?([^"']+)["']?`)

	// Location must start with a capital letter, so it is matched against the
	// original message rather than the lowercased one.
	locationPattern = regexp.MustCompile(`\b(?:[Ii]n|[Aa]t|[Ff]or)\s+([A-Z][a-zA-Z\s]+?)(?:\?|$|\.)`)
)

var numberWords = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5", "six": "6",
	"seven": "7", "eight": "8", "nine": "9", "ten": "10", "eleven": "11", "twelve": "12",
}

// rule is one entry of the ordered classification table
type rule struct {
	intent   Intent
	keywords []string
	extract  func(original, lower string) (string, Params)
}

func (r rule) matches(lower string) bool {
	for _, kw := range r.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// rules is evaluated top to bottom; the first matching rule wins.
var rules = []rule{
	{
		intent:   Calendar,
		keywords: []string{"calendar", "schedule", "meeting", "event"},
		extract:  extractCalendar,
	},
	{
		intent:   Email,
		keywords: []string{"email", "send", "mail"},
		extract:  extractEmail,
	},
	{
		intent:   Weather,
		keywords: []string{"weather", "temperature", "forecast"},
		extract:  extractWeather,
	},
	{
		intent:   UI,
		keywords: []string{"generate", "create", "show", "card", "table", "timeline"},
		extract:  extractUI,
	},
}

// Classify runs the keyword fallback classifier over a raw user message.
// It never fails: a message matching no rule is classified as Chat.
func Classify(message string) Classification {
	lower := strings.ToLower(message)
	for _, r := range rules {
		if !r.matches(lower) {
			continue
		}
		reply, params := r.extract(message, lower)
		return Classification{Intent: r.intent, Message: reply, Params: params}
	}
	return Classification{
		Intent:  Chat,
		Message: "I understand. How can I help you?",
		Params:  Params{},
	}
}

func extractCalendar(original, _ string) (string, Params) {
	params := Params{}

	var monthSpan []int
	if loc := monthDayPattern.FindStringSubmatchIndex(original); loc != nil {
		monthSpan = loc[:2]
		month := strings.ToLower(original[loc[2]:loc[3]])
		params["date"] = fmt.Sprintf("%s %s", month, original[loc[4]:loc[5]])
	} else if m := relativePattern.FindStringSubmatch(original); m != nil {
		params["date"] = strings.Join(strings.Fields(strings.ToLower(m[1])), " ")
	} else if m := weekdayPattern.FindStringSubmatch(original); m != nil {
		params["date"] = strings.ToLower(m[1])
	}

	if t := extractTime(original, monthSpan); t != "" {
		params["time"] = t
	}

	params["title"] = extractTitle(original, params.String("date"))

	return "I'll create a calendar event for you.", params
}

// extractTime prefers an explicit clock time (colon or am/pm), then a spelled
// number with am/pm, then the first bare number outside the month-day match.
func extractTime(original string, monthSpan []int) string {
	var bare string
	for _, loc := range clockPattern.FindAllStringSubmatchIndex(original, -1) {
		hour := original[loc[2]:loc[3]]
		minute := ""
		if loc[4] >= 0 {
			minute = original[loc[4]:loc[5]]
		}
		meridiem := ""
		if loc[6] >= 0 {
			meridiem = strings.ToLower(original[loc[6]:loc[7]])
		}

		if minute != "" || meridiem != "" {
			return formatTimeToken(hour, minute, meridiem)
		}
		if bare == "" && !within(loc[2], monthSpan) {
			bare = hour
		}
	}

	if m := wordTimePattern.FindStringSubmatch(original); m != nil {
		return formatTimeToken(numberWords[strings.ToLower(m[1])], "", strings.ToLower(m[2]))
	}

	return bare
}

func formatTimeToken(hour, minute, meridiem string) string {
	token := hour
	if minute != "" {
		token = hour + ":" + minute
	}
	return strings.TrimSpace(token + " " + meridiem)
}

func within(pos int, span []int) bool {
	return span != nil && pos >= span[0] && pos < span[1]
}

func extractTitle(original, date string) string {
	for _, pattern := range []*regexp.Regexp{titleExplicitPattern, titleNounPattern, titleAfterPattern} {
		m := pattern.FindStringSubmatch(original)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[1])
		if title == "" || strings.EqualFold(title, date) {
			continue
		}
		return title
	}
	return DefaultTitle
}

func extractEmail(original, _ string) (string, Params) {
	params := Params{
		"subject": DefaultSubject,
		"body":    DefaultEmailBody,
	}
	if m := emailAddressPattern.FindStringSubmatch(original); m != nil {
		params["to"] = m[1]
	}
	if m := subjectPattern.FindStringSubmatch(original); m != nil {
		if subject := strings.TrimSpace(m[1]); subject != "" {
			params["subject"] = subject
		}
	}
	return "I'll send an email for you.", params
}

func extractWeather(original, _ string) (string, Params) {
	location := DefaultLocation
	if m := locationPattern.FindStringSubmatch(original); m != nil {
		if l := strings.TrimSpace(m[1]); l != "" {
			location = l
		}
	}
	return "I'll check the weather for you.", Params{"location": location}
}

func extractUI(_, lower string) (string, Params) {
	uiType := DefaultUIType
	if strings.Contains(lower, "table") {
		uiType = "table"
	} else if strings.Contains(lower, "timeline") {
		uiType = "timeline"
	}
	return fmt.Sprintf("I'll generate a %s for you.", uiType), Params{
		"type": uiType,
		"data": map[string]any{},
	}
}
