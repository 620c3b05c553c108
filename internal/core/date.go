package core

import (
	"strings"
	"time"
)

// isoLayouts are the accepted shapes of a backend timestamp, tried in order.
// Time-of-day and offset are parsed when present but only the calendar date
// survives normalization.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseISODate parses an ISO-8601 date/time string into a calendar date.
// The result is pinned to UTC midnight so display never depends on the
// process timezone. Returns ErrInvalidDate for anything that does not parse.
func ParseISODate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, ErrInvalidDate
}
