package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursework-sync/internal/models"
)

var historyRowColumns = []string{"id", "user_id", "action", "status", "trigger", "created_count", "updated_count",
	"error_count", "error_messages", "database_id", "started_at", "finished_at", "created_at"}

func TestSyncHistoryRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sync_history")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	history := &models.SyncHistory{
		UserID:        "user-1",
		Action:        models.SyncActionSync,
		Status:        models.SyncStatusError,
		ErrorCount:    1,
		ErrorMessages: models.ErrorList{{Action: models.SyncActionCreate, Error: "boom"}},
	}
	require.NoError(t, NewSyncHistoryRepository(db).Create(context.Background(), history))
	assert.NotEmpty(t, history.ID)
	assert.False(t, history.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncHistoryRepositoryLatest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows(historyRowColumns).
		AddRow("h-1", "user-1", "sync", "success", "manual", 3, 2, 0, `[]`, "db-1", now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM sync_history WHERE user_id = $1 AND action = $2")).
		WithArgs("user-1", models.SyncActionSync).
		WillReturnRows(rows)

	latest, err := NewSyncHistoryRepository(db).Latest(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, latest.CreatedCount)
	require.NotNil(t, latest.DatabaseID)
	assert.Equal(t, "db-1", *latest.DatabaseID)
	assert.Empty(t, latest.ErrorMessages)
}

func TestSyncHistoryRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sync_history WHERE user_id = $1 AND status = $2")).
		WithArgs("user-1", "error").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(41))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY started_at DESC LIMIT 20 OFFSET 20")).
		WithArgs("user-1", "error").
		WillReturnRows(sqlmock.NewRows(historyRowColumns).
			AddRow("h-2", "user-1", "sync", "error", "scheduled", 0, 0, 1, `[{"action":"sync","error":"401"}]`, nil, now, now, now))

	items, total, err := NewSyncHistoryRepository(db).List(context.Background(), models.SyncHistoryFilter{
		UserID: "user-1",
		Status: "error",
		Page:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 41, total)
	require.Len(t, items, 1)
	assert.Nil(t, items[0].DatabaseID)
	require.Len(t, items[0].ErrorMessages, 1)
	assert.Equal(t, "401", items[0].ErrorMessages[0].Error)
	require.NoError(t, mock.ExpectationsWereMet())
}
