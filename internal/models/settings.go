package models

import "time"

// Phase is a named custom academic period. Start and End are YYYY-MM-DD dates kept as
// entered; entries that do not parse are ignored when bucketing.
type Phase struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// UserSettings holds the per-user inputs a sync run consumes.
type UserSettings struct {
	UserID            string     `db:"user_id" json:"user_id"`
	CanvasToken       string     `db:"canvas_token" json:"-"`
	NotionToken       string     `db:"notion_token" json:"-"`
	SchoolDomain      string     `db:"school_domain" json:"school_domain"`
	NotionPageID      string     `db:"notion_page_id" json:"notion_page_id"`
	NotionDatabaseID  string     `db:"notion_database_id" json:"notion_database_id"`
	DBProperties      StringList `db:"db_properties" json:"db_properties"`
	SemesterStartDate *time.Time `db:"semester_start_date" json:"semester_start_date,omitempty"`
	SemesterEndDate   *time.Time `db:"semester_end_date" json:"semester_end_date,omitempty"`
	SemesterLabel     string     `db:"semester_label" json:"semester_label"`
	SemesterPhases    PhaseList  `db:"semester_phases" json:"semester_phases"`
	AutoSync          bool       `db:"auto_sync" json:"auto_sync"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}
