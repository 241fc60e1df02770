package dto

import (
	"time"

	"github.com/noah-isme/coursework-sync/internal/models"
)

// SyncRequest is the body of POST /sync and POST /sync/async.
type SyncRequest struct {
	Timeframe   string `json:"timeframe" validate:"omitempty,oneof=past overdue undated ungraded unsubmitted upcoming future"`
	CourseScope string `json:"course_scope" validate:"omitempty,oneof=recent all"`
}

// Scope returns the requested course scope, defaulting to recent courses.
func (r SyncRequest) Scope() models.CourseScope {
	if r.CourseScope == string(models.CourseScopeAll) {
		return models.CourseScopeAll
	}
	return models.CourseScopeRecent
}

// SyncResponse reports one finished run. Errors holds at most the configured number of
// entries; ErrorCount is the full count.
type SyncResponse struct {
	Status          string             `json:"status"`
	Created         int                `json:"created"`
	Updated         int                `json:"updated"`
	ErrorCount      int                `json:"error_count"`
	Errors          []models.SyncError `json:"errors"`
	DatabaseID      string             `json:"database_id,omitempty"`
	DatabaseCreated bool               `json:"database_created"`
	Trigger         string             `json:"trigger,omitempty"`
	StartedAt       time.Time          `json:"started_at"`
	FinishedAt      time.Time          `json:"finished_at"`
}

// SyncJobResponse acknowledges a queued run.
type SyncJobResponse struct {
	JobID    string    `json:"job_id"`
	Status   string    `json:"status"`
	Enqueued time.Time `json:"enqueued_at"`
}

// CreateDatabaseRequest is the body of POST /databases.
type CreateDatabaseRequest struct {
	Properties []string `json:"properties" validate:"omitempty,dive,required"`
}

// CreateDatabaseResponse reports a newly created destination database.
type CreateDatabaseResponse struct {
	DatabaseID string   `json:"database_id"`
	Properties []string `json:"properties"`
}

// SyncHistoryQuery binds GET /sync/history query parameters.
type SyncHistoryQuery struct {
	Action   string `form:"action" validate:"omitempty,oneof=sync create_db"`
	Status   string `form:"status" validate:"omitempty,oneof=success error"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=200"`
}

// CalendarResolution previews how a due date is bucketed.
type CalendarResolution struct {
	Due      string `json:"due"`
	DueLocal string `json:"due_local,omitempty"`
	Semester string `json:"semester,omitempty"`
	Week     string `json:"week,omitempty"`
}
