package calendar

import (
	"fmt"
	"time"
)

const (
	semesterWeeks    = 17
	specialTermWeeks = 6
)

// Defaults is the built-in academic calendar: ordered, non-overlapping semester ranges
// and the week ranges registered for each semester label.
type Defaults struct {
	Semesters []Range
	Weeks     map[string][]Range
}

// DefaultCalendar generates the built-in calendar for the academic years starting in
// firstYear. Each year has Semester 1 (from the first Monday on or after 4 Aug), a Winter
// Term, Semester 2 (from the first Monday on or after 6 Jan) and two Special Terms.
func DefaultCalendar(firstYear, years int) Defaults {
	if years <= 0 {
		years = 1
	}
	cal := Defaults{Weeks: make(map[string][]Range)}
	for y := firstYear; y < firstYear+years; y++ {
		prefix := fmt.Sprintf("AY%d/%d", y, y+1)

		sem1Start := firstMondayOnOrAfter(y, time.August, 4)
		sem1End := sem1Start.AddDate(0, 0, semesterWeeks*7-1)
		sem2Start := firstMondayOnOrAfter(y+1, time.January, 6)
		sem2End := sem2Start.AddDate(0, 0, semesterWeeks*7-1)
		st1End := sem2End.AddDate(0, 0, specialTermWeeks*7)
		st2End := st1End.AddDate(0, 0, specialTermWeeks*7)
		if next := firstMondayOnOrAfter(y+1, time.August, 4); !st2End.Before(next) {
			st2End = next.AddDate(0, 0, -1)
		}

		sem1 := prefix + " Semester 1"
		sem2 := prefix + " Semester 2"
		cal.Semesters = append(cal.Semesters,
			Range{Label: sem1, Start: sem1Start, End: sem1End},
			Range{Label: prefix + " " + WinterTerm, Start: sem1End.AddDate(0, 0, 1), End: sem2Start.AddDate(0, 0, -1)},
			Range{Label: sem2, Start: sem2Start, End: sem2End},
			Range{Label: prefix + " " + SpecialTerm + " I", Start: sem2End.AddDate(0, 0, 1), End: st1End},
			Range{Label: prefix + " " + SpecialTerm + " II", Start: st1End.AddDate(0, 0, 1), End: st2End},
		)
		cal.Weeks[sem1] = teachingWeeks(sem1Start)
		cal.Weeks[sem2] = teachingWeeks(sem2Start)
	}
	return cal
}

// teachingWeeks lays out Week 1-6, Recess Week, Week 7-13, Reading Week and two
// examination weeks, each Monday through Sunday.
func teachingWeeks(start time.Time) []Range {
	labels := make([]string, 0, semesterWeeks)
	for i := 1; i <= 6; i++ {
		labels = append(labels, fmt.Sprintf("Week %d", i))
	}
	labels = append(labels, "Recess Week")
	for i := 7; i <= 13; i++ {
		labels = append(labels, fmt.Sprintf("Week %d", i))
	}
	labels = append(labels, "Reading Week", "Examination Week 1", "Examination Week 2")

	weeks := make([]Range, len(labels))
	for i, label := range labels {
		weekStart := start.AddDate(0, 0, i*7)
		weeks[i] = Range{Label: label, Start: weekStart, End: weekStart.AddDate(0, 0, 6)}
	}
	return weeks
}

func firstMondayOnOrAfter(year int, month time.Month, day int) time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
