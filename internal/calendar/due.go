package calendar

import (
	"fmt"
	"strings"
	"time"
)

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// parseDue interprets a source due value. Date-only values are taken as local dates;
// date-time values are converted into loc. Naive date-times are read as UTC.
func parseDue(due string, loc *time.Location) (t time.Time, dateOnly bool, present bool, err error) {
	s := strings.TrimSpace(due)
	if s == "" {
		return time.Time{}, false, false, nil
	}
	if !strings.Contains(s, "T") {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			return time.Time{}, false, true, fmt.Errorf("parse due date %q: %w", due, err)
		}
		return d, true, true, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.In(loc), false, true, nil
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return ts.In(loc), false, true, nil
		}
	}
	return time.Time{}, false, true, fmt.Errorf("parse due timestamp %q", due)
}

// NormalizeDue truncates a due value to its local calendar date. The boolean is false
// when no due date is present.
func NormalizeDue(due string, loc *time.Location) (time.Time, bool, error) {
	t, _, present, err := parseDue(due, loc)
	if err != nil || !present {
		return time.Time{}, present, err
	}
	return civil(t), true, nil
}

// FormatDue renders a due value for the destination: date-only values stay as dates,
// timestamps are expressed in the local offset. Absent values render as "".
func FormatDue(due string, loc *time.Location) (string, error) {
	t, dateOnly, present, err := parseDue(due, loc)
	if err != nil || !present {
		return "", err
	}
	if dateOnly {
		return t.Format(dateLayout), nil
	}
	return t.Format(time.RFC3339), nil
}
