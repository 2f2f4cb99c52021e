package timeutil

import (
	"fmt"
	"time"
)

// ResolveLocation returns the named location, falling back to time.Local.
// The bool result reports whether the fallback was used.
func ResolveLocation(timezone string) (*time.Location, bool) {
	if timezone == "" {
		return time.Local, true
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Local, true
	}
	return loc, false
}

// ZoneName returns an IANA zone name for loc. time.Local reports itself as
// "Local", which calendar APIs reject, so fallback is used instead.
func ZoneName(loc *time.Location, fallback string) string {
	if loc == nil {
		return fallback
	}
	name := loc.String()
	if name == "" || name == "Local" {
		return fallback
	}
	return name
}

// absoluteLayouts are tried in order when a date token is not one of the
// recognised relative or month-day forms.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"Monday, January 2, 2006",
}

// ParseDateTime parses value with the absolute layouts in loc. Values that
// carry an explicit offset keep it.
func ParseDateTime(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("time value is required")
	}
	if loc == nil {
		loc = time.Local
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	for _, layout := range absoluteLayouts[1:] {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse time: %s", value)
}
