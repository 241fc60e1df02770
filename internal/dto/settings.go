package dto

import (
	"time"

	"github.com/noah-isme/coursework-sync/internal/models"
)

// UpdateSettingsRequest is the body of PUT /settings. Omitted tokens keep their stored
// value; an empty database id clears it so the next sync creates a fresh database.
type UpdateSettingsRequest struct {
	CanvasToken       *string        `json:"canvas_token" validate:"omitempty,min=8"`
	NotionToken       *string        `json:"notion_token" validate:"omitempty,min=8"`
	SchoolDomain      string         `json:"school_domain" validate:"required,hostname_rfc1123"`
	NotionPageID      string         `json:"notion_page_id" validate:"required"`
	NotionDatabaseID  string         `json:"notion_database_id"`
	DBProperties      []string       `json:"db_properties" validate:"omitempty,dive,required"`
	SemesterStartDate string         `json:"semester_start_date" validate:"omitempty,datetime=2006-01-02"`
	SemesterEndDate   string         `json:"semester_end_date" validate:"omitempty,datetime=2006-01-02"`
	SemesterLabel     string         `json:"semester_label" validate:"omitempty,max=100"`
	SemesterPhases    []models.Phase `json:"semester_phases"`
	AutoSync          bool           `json:"auto_sync"`
}

// SettingsResponse exposes stored settings with tokens masked.
type SettingsResponse struct {
	CanvasToken       string         `json:"canvas_token"`
	NotionToken       string         `json:"notion_token"`
	SchoolDomain      string         `json:"school_domain"`
	NotionPageID      string         `json:"notion_page_id"`
	NotionDatabaseID  string         `json:"notion_database_id"`
	DBProperties      []string       `json:"db_properties"`
	SemesterStartDate string         `json:"semester_start_date,omitempty"`
	SemesterEndDate   string         `json:"semester_end_date,omitempty"`
	SemesterLabel     string         `json:"semester_label,omitempty"`
	SemesterPhases    []models.Phase `json:"semester_phases"`
	AutoSync          bool           `json:"auto_sync"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
