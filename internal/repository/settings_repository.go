package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coursework-sync/internal/models"
)

const settingsColumns = `user_id, canvas_token, notion_token, school_domain, notion_page_id, notion_database_id,
       db_properties, semester_start_date, semester_end_date, semester_label, semester_phases, auto_sync,
       created_at, updated_at`

// SettingsRepository persists per-user sync settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get fetches the settings of a user. sql.ErrNoRows is returned untouched.
func (r *SettingsRepository) Get(ctx context.Context, userID string) (*models.UserSettings, error) {
	query := `SELECT ` + settingsColumns + ` FROM user_settings WHERE user_id = $1`
	var settings models.UserSettings
	if err := r.db.GetContext(ctx, &settings, query, userID); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert inserts or replaces the settings of a user.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.UserSettings) error {
	const query = `INSERT INTO user_settings
	(user_id, canvas_token, notion_token, school_domain, notion_page_id, notion_database_id, db_properties,
	 semester_start_date, semester_end_date, semester_label, semester_phases, auto_sync, created_at, updated_at)
	VALUES (:user_id, :canvas_token, :notion_token, :school_domain, :notion_page_id, :notion_database_id, :db_properties,
	 :semester_start_date, :semester_end_date, :semester_label, :semester_phases, :auto_sync, :created_at, :updated_at)
	ON CONFLICT (user_id)
	DO UPDATE SET canvas_token = EXCLUDED.canvas_token, notion_token = EXCLUDED.notion_token,
	              school_domain = EXCLUDED.school_domain, notion_page_id = EXCLUDED.notion_page_id,
	              notion_database_id = EXCLUDED.notion_database_id, db_properties = EXCLUDED.db_properties,
	              semester_start_date = EXCLUDED.semester_start_date, semester_end_date = EXCLUDED.semester_end_date,
	              semester_label = EXCLUDED.semester_label, semester_phases = EXCLUDED.semester_phases,
	              auto_sync = EXCLUDED.auto_sync, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}

// UpdateDatabaseID stores the destination database created during a sync.
func (r *SettingsRepository) UpdateDatabaseID(ctx context.Context, userID, databaseID string) error {
	const query = `UPDATE user_settings SET notion_database_id = $1, updated_at = $2 WHERE user_id = $3`
	result, err := r.db.ExecContext(ctx, query, databaseID, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("update notion database id: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check database id update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListAutoSyncUsers returns the users that opted into scheduled syncs.
func (r *SettingsRepository) ListAutoSyncUsers(ctx context.Context) ([]string, error) {
	const query = `SELECT user_id FROM user_settings WHERE auto_sync = TRUE ORDER BY user_id ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list auto sync users: %w", err)
	}
	return ids, nil
}
