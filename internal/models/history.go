package models

import "time"

// SyncHistory is the audit record persisted for every sync run or database creation.
type SyncHistory struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	Action        SyncAction `db:"action" json:"action"`
	Status        string     `db:"status" json:"status"`
	Trigger       string     `db:"trigger" json:"trigger"`
	CreatedCount  int        `db:"created_count" json:"created_count"`
	UpdatedCount  int        `db:"updated_count" json:"updated_count"`
	ErrorCount    int        `db:"error_count" json:"error_count"`
	ErrorMessages ErrorList  `db:"error_messages" json:"error_messages"`
	DatabaseID    *string    `db:"database_id" json:"database_id,omitempty"`
	StartedAt     time.Time  `db:"started_at" json:"started_at"`
	FinishedAt    time.Time  `db:"finished_at" json:"finished_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// SyncTrigger values record what started a run.
const (
	SyncTriggerManual    = "manual"
	SyncTriggerAsync     = "async"
	SyncTriggerScheduled = "scheduled"
)

// SyncHistoryFilter narrows history listings.
type SyncHistoryFilter struct {
	UserID   string
	Action   SyncAction
	Status   string
	Page     int
	PageSize int
}
