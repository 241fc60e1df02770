package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/coursework-sync/internal/dto"
	"github.com/noah-isme/coursework-sync/pkg/cache"
	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CacheService keeps the latest sync result of every user close at hand. A nil or
// disabled service behaves as a permanent miss.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// LatestResult loads the cached result of userID's last run. It reports false on a miss.
func (s *CacheService) LatestResult(ctx context.Context, userID string) (*dto.SyncResponse, bool, error) {
	if !s.Enabled() {
		return nil, false, nil
	}
	key := cache.LatestResultKey(userID)
	start := time.Now()
	var result dto.SyncResponse
	err := s.repo.Get(ctx, key, &result)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false, err
	}
	return &result, true, nil
}

// StoreResult caches result as the latest run of userID. A non-positive ttl uses the default.
func (s *CacheService) StoreResult(ctx context.Context, userID string, result *dto.SyncResponse, ttl time.Duration) error {
	if !s.Enabled() || result == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	key := cache.LatestResultKey(userID)
	start := time.Now()
	err := s.repo.Set(ctx, key, result, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// DropResult forgets the cached result of userID.
func (s *CacheService) DropResult(ctx context.Context, userID string) error {
	if !s.Enabled() {
		return nil
	}
	key := cache.LatestResultKey(userID)
	if err := s.repo.Delete(ctx, key); err != nil {
		s.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
