package models

import "time"

// SyncAction tags what a run or error entry attempted.
type SyncAction string

const (
	SyncActionCreate         SyncAction = "create"
	SyncActionUpdate         SyncAction = "update"
	SyncActionSync           SyncAction = "sync"
	SyncActionCreateDatabase SyncAction = "create_db"
)

const (
	SyncStatusSuccess = "success"
	SyncStatusError   = "error"
)

// SyncError is one failed attempt. Response carries a transport summary when the
// destination answered; Error carries the message when the call itself failed.
type SyncError struct {
	Action   SyncAction `json:"action"`
	Course   string     `json:"course,omitempty"`
	URL      string     `json:"url,omitempty"`
	Response string     `json:"response,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// SyncResult is the output of exactly one reconciliation run.
type SyncResult struct {
	Created         int         `json:"created"`
	Updated         int         `json:"updated"`
	Errors          []SyncError `json:"errors"`
	DatabaseID      string      `json:"database_id,omitempty"`
	DatabaseCreated bool        `json:"database_created"`
	StartedAt       time.Time   `json:"started_at"`
	FinishedAt      time.Time   `json:"finished_at"`
}

// Status derives the reported run status: any error taints the run.
func (r *SyncResult) Status() string {
	if r == nil || len(r.Errors) > 0 {
		return SyncStatusError
	}
	return SyncStatusSuccess
}

// CappedErrors returns at most limit error entries in their recorded order.
func (r *SyncResult) CappedErrors(limit int) []SyncError {
	if r == nil {
		return nil
	}
	if limit <= 0 || len(r.Errors) <= limit {
		return append([]SyncError(nil), r.Errors...)
	}
	return append([]SyncError(nil), r.Errors[:limit]...)
}
