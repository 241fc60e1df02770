package models

import "time"

// CourseScope selects which source courses a run iterates.
type CourseScope string

const (
	// CourseScopeRecent limits a run to courses that started within the last six months.
	CourseScopeRecent CourseScope = "recent"
	// CourseScopeAll includes every course visible to the token.
	CourseScopeAll CourseScope = "all"
)

// MatchKeySeparator joins course name and title in the fallback matching key.
const MatchKeySeparator = "||"

// Course is a source-system course the student is enrolled in.
type Course struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Code      string     `json:"course_code,omitempty"`
	StartAt   *time.Time `json:"start_at,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Assignment is one source-side assignment produced during a sync run.
// URL and DueAt are empty when the source omits them.
type Assignment struct {
	ExternalID   string `json:"external_id"`
	Title        string `json:"title"`
	CourseName   string `json:"course_name"`
	URL          string `json:"url,omitempty"`
	DueAt        string `json:"due_at,omitempty"`
	HasSubmitted bool   `json:"has_submitted"`
}

// MatchKey returns the fallback matching key for the assignment.
func (a Assignment) MatchKey() string {
	return MatchKey(a.CourseName, a.Title)
}

// MatchKey joins a course name and title into the fallback matching key.
func MatchKey(courseName, title string) string {
	return courseName + MatchKeySeparator + title
}
