package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursework-sync/internal/dto"
	"github.com/noah-isme/coursework-sync/internal/models"
	"github.com/noah-isme/coursework-sync/pkg/cache"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
)

type memoryCache struct {
	items  map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	delete(m.items, key)
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCache()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Hour, nil, true)
	ctx := context.Background()

	_, hit, err := svc.LatestResult(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.StoreResult(ctx, "user-1", &dto.SyncResponse{Status: models.SyncStatusSuccess, Created: 3}, 0))
	assert.Equal(t, time.Hour, repo.ttls[cache.LatestResultKey("user-1")])

	got, hit, err := svc.LatestResult(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, 3, got.Created)

	require.NoError(t, svc.DropResult(ctx, "user-1"))
	_, hit, _ = svc.LatestResult(ctx, "user-1")
	assert.False(t, hit)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.cacheMisses))
}

func TestCacheServiceReportsBackendErrors(t *testing.T) {
	repo := newMemoryCache()
	repo.getErr = errors.New("connection reset")
	svc := NewCacheService(repo, nil, 0, nil, true)

	_, hit, err := svc.LatestResult(context.Background(), "user-1")
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	var nilSvc *CacheService
	_, hit, err := nilSvc.LatestResult(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, nilSvc.StoreResult(context.Background(), "user-1", &dto.SyncResponse{}, 0))

	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, 0, nil, false)
	require.NoError(t, svc.StoreResult(context.Background(), "user-1", &dto.SyncResponse{}, 0))
	assert.Empty(t, repo.items)
}
