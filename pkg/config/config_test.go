package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SYNC_ERROR_DETAIL_LIMIT", "0")
	t.Setenv("NOTION_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 8, cfg.Sync.UTCOffsetHours)
	assert.Equal(t, 10, cfg.Sync.ErrorDetailLimit)
	assert.Equal(t, 20*time.Second, cfg.Notion.Timeout)
	assert.Equal(t, "https://%s.instructure.com", cfg.Canvas.BaseURLTemplate)
	assert.Equal(t, "0 */6 * * *", cfg.Scheduler.Cron)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SYNC_UTC_OFFSET_HOURS", "-5")
	t.Setenv("SYNC_MATRIC_YEAR", "2023")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("ENABLE_ASYNC_SYNC", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, -5, cfg.Sync.UTCOffsetHours)
	assert.Equal(t, 2023, cfg.Sync.MatricYear)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Worker.Enabled)
}
