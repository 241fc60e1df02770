package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/coursework-sync/internal/models"
)

const (
	// NotApplicable is returned for assignments without a due date.
	NotApplicable = "N/A"
	// CustomSemesterLabel is used when a custom range matches but has no label.
	CustomSemesterLabel = "Custom Semester"
	SpecialTerm         = "Special Term"
	WinterTerm          = "Winter Term"

	dateLayout = "2006-01-02"
)

// Range is an inclusive span of local calendar dates.
type Range struct {
	Label string
	Start time.Time
	End   time.Time
}

// Contains reports whether the date lies within [Start, End].
func (r Range) Contains(d time.Time) bool {
	d = civil(d)
	return !d.Before(civil(r.Start)) && !d.After(civil(r.End))
}

// Config is the user-supplied calendar override. It is never mutated.
type Config struct {
	Phases      []models.Phase
	CustomStart *time.Time
	CustomEnd   *time.Time
	CustomLabel string
}

// Bucket is the resolved pair of labels for one due date. Empty labels mean no range matched.
type Bucket struct {
	Semester string
	Week     string
}

// FixedZone returns the local calendar timezone for a whole-hour UTC offset.
func FixedZone(offsetHours int) *time.Location {
	sign := "+"
	if offsetHours < 0 {
		sign = "-"
	}
	abs := offsetHours
	if abs < 0 {
		abs = -abs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:00", sign, abs), offsetHours*3600)
}

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(raw))
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
