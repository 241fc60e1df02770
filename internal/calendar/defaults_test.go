package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCalendarRangesAreOrderedAndDisjoint(t *testing.T) {
	cal := DefaultCalendar(2023, 4)
	require.Len(t, cal.Semesters, 20)
	for i := 1; i < len(cal.Semesters); i++ {
		prev, cur := cal.Semesters[i-1], cal.Semesters[i]
		assert.False(t, cur.Start.After(cur.End), cur.Label)
		assert.True(t, cur.Start.After(prev.End), "%s overlaps %s", cur.Label, prev.Label)
	}
}

func TestDefaultCalendarWeeks(t *testing.T) {
	cal := DefaultCalendar(2024, 1)
	weeks := cal.Weeks["AY2024/2025 Semester 1"]
	require.Len(t, weeks, 17)
	assert.Equal(t, "Week 1", weeks[0].Label)
	assert.Equal(t, "2024-08-05", weeks[0].Start.Format(dateLayout))
	assert.Equal(t, "Recess Week", weeks[6].Label)
	assert.Equal(t, "Examination Week 2", weeks[16].Label)
	assert.Equal(t, "2024-12-01", weeks[16].End.Format(dateLayout))
	_, ok := cal.Weeks["AY2024/2025 Winter Term"]
	assert.False(t, ok)
}
