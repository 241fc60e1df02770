package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/coursework-sync/internal/models"
)

const historyColumns = `id, user_id, action, status, trigger, created_count, updated_count, error_count,
       error_messages, database_id, started_at, finished_at, created_at`

// SyncHistoryRepository persists the audit trail of sync runs.
type SyncHistoryRepository struct {
	db *sqlx.DB
}

// NewSyncHistoryRepository constructs the repository.
func NewSyncHistoryRepository(db *sqlx.DB) *SyncHistoryRepository {
	return &SyncHistoryRepository{db: db}
}

// Create inserts a history row, assigning an id and timestamp when missing.
func (r *SyncHistoryRepository) Create(ctx context.Context, history *models.SyncHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sync_history
	(id, user_id, action, status, trigger, created_count, updated_count, error_count, error_messages, database_id,
	 started_at, finished_at, created_at)
	VALUES (:id, :user_id, :action, :status, :trigger, :created_count, :updated_count, :error_count, :error_messages,
	 :database_id, :started_at, :finished_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, history); err != nil {
		return fmt.Errorf("create sync history: %w", err)
	}
	return nil
}

// Latest returns the most recent run of a user. sql.ErrNoRows is returned untouched.
func (r *SyncHistoryRepository) Latest(ctx context.Context, userID string) (*models.SyncHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM sync_history WHERE user_id = $1 AND action = $2
	ORDER BY started_at DESC LIMIT 1`
	var history models.SyncHistory
	if err := r.db.GetContext(ctx, &history, query, userID, models.SyncActionSync); err != nil {
		return nil, err
	}
	return &history, nil
}

// List returns history rows matching the filter (latest first) and the total count.
func (r *SyncHistoryRepository) List(ctx context.Context, filter models.SyncHistoryFilter) ([]models.SyncHistory, int, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conditions = append(conditions, fmt.Sprintf("action = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM sync_history"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count sync history: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 20
	}
	query := fmt.Sprintf("SELECT %s FROM sync_history%s ORDER BY started_at DESC LIMIT %d OFFSET %d",
		historyColumns, where, size, (page-1)*size)

	var items []models.SyncHistory
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sync history: %w", err)
	}
	return items, total, nil
}
