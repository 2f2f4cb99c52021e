package timeutil

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultHour   = 14
	DefaultMinute = 0

	// EventDuration is the length of every event created from chat.
	EventDuration = 60 * time.Minute
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var hourWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

const monthNames = `january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec`

var (
	monthFirstPattern = regexp.MustCompile(`(?i)\b(` + monthNames + `)\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dayFirstPattern   = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthNames + `)\b`)
	hourPattern       = regexp.MustCompile(`(\d+)|(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)`)
	nonDigitPattern   = regexp.MustCompile(`\D`)
)

// ResolveDateTime turns the loose date and time tokens extracted from a chat
// message into a concrete start time in now's location. Empty tokens are
// treated as absent. Unrecognised dates default to tomorrow and unrecognised
// times to 14:00. The result is always strictly after now.
func ResolveDateTime(dateToken, timeToken string, now time.Time) time.Time {
	loc := now.Location()
	date := resolveDate(dateToken, now)
	hour, minute := resolveClock(timeToken)

	start := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
	if !start.After(now) {
		start = start.AddDate(0, 0, 1)
	}
	// Still in the past only for absolute dates that already went by.
	if !start.After(now) {
		tomorrow := now.AddDate(0, 0, 1)
		start = time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), hour, minute, 0, 0, loc)
	}
	return start
}

// ResolveEventWindow returns the start from ResolveDateTime and an end
// EventDuration later.
func ResolveEventWindow(dateToken, timeToken string, now time.Time) (time.Time, time.Time) {
	start := ResolveDateTime(dateToken, timeToken, now)
	return start, start.Add(EventDuration)
}

func resolveDate(token string, now time.Time) time.Time {
	d := strings.ToLower(strings.TrimSpace(token))
	tomorrow := now.AddDate(0, 0, 1)

	switch {
	case d == "", d == "tomorrow":
		return tomorrow
	case d == "today":
		return now
	case strings.HasPrefix(d, "next "):
		if t, ok := upcomingWeekday(strings.TrimSpace(strings.TrimPrefix(d, "next ")), now); ok {
			return t
		}
		return tomorrow
	}

	if t, ok := upcomingWeekday(d, now); ok {
		return t
	}
	if t, ok := monthDay(d, now); ok {
		return t
	}
	if t, err := ParseDateTime(strings.TrimSpace(token), now.Location()); err == nil {
		return t
	}
	return tomorrow
}

// upcomingWeekday returns the next occurrence of the named weekday. A name
// matching today's weekday resolves to one week out, never to today.
func upcomingWeekday(name string, now time.Time) (time.Time, bool) {
	target, ok := weekdays[name]
	if !ok {
		return time.Time{}, false
	}
	offset := int(target) - int(now.Weekday())
	if offset <= 0 {
		offset += 7
	}
	return now.AddDate(0, 0, offset), true
}

func monthDay(d string, now time.Time) (time.Time, bool) {
	if m := monthFirstPattern.FindStringSubmatch(d); m != nil {
		if t, ok := buildMonthDay(m[1], m[2], now); ok {
			return t, true
		}
	}
	if m := dayFirstPattern.FindStringSubmatch(d); m != nil {
		if t, ok := buildMonthDay(m[2], m[1], now); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// buildMonthDay places month/day in the current year, rolling to next year
// when that day's midnight is already behind now.
func buildMonthDay(monthName, dayStr string, now time.Time) (time.Time, bool) {
	month, ok := months[strings.ToLower(monthName)]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	date := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	if date.Before(now) {
		date = time.Date(now.Year()+1, month, day, 0, 0, 0, 0, now.Location())
	}
	return date, true
}

// resolveClock parses the time token into hour and minute. The hour and
// minute range checks are independent: an invalid hour resets only the hour.
func resolveClock(token string) (int, int) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return DefaultHour, DefaultMinute
	}

	hour, minute := DefaultHour, DefaultMinute
	hourOK := true
	pm := strings.Contains(t, "pm")
	am := strings.Contains(t, "am")

	if strings.Contains(t, ":") {
		parts := strings.Split(t, ":")
		hour, hourOK = leadingInt(parts[0])

		minute = 0
		if digits := nonDigitPattern.ReplaceAllString(parts[1], ""); digits != "" {
			if m, err := strconv.Atoi(digits); err == nil {
				minute = m
			} else {
				minute = -1
			}
		}

		if hourOK {
			if pm && hour < 12 {
				hour += 12
			} else if am && hour == 12 {
				hour = 0
			}
		}
	} else if m := hourPattern.FindStringSubmatch(t); m != nil {
		if m[1] != "" {
			h, err := strconv.Atoi(m[1])
			hour, hourOK = h, err == nil
		} else {
			hour = hourWords[m[2]]
		}

		if hourOK {
			switch {
			case pm && hour < 12:
				hour += 12
			case am && hour == 12:
				hour = 0
			case !am && !pm && hour >= 1 && hour <= 12:
				// No meridiem on a 12-hour value: assume afternoon.
				if hour != 12 {
					hour += 12
				}
			}
		}
	}

	if !hourOK || hour < 0 || hour > 23 {
		hour = DefaultHour
	}
	if minute < 0 || minute > 59 {
		minute = DefaultMinute
	}
	return hour, minute
}

// leadingInt parses an optionally signed run of digits at the start of s,
// ignoring leading whitespace and anything after the digits.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
