package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/coursework-sync/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]interface{}
	assert.ErrorIs(t, repo.Get(ctx, "sync:latest:user-1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "sync:latest:user-1", map[string]int{"created": 1}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "sync:latest:user-1"))
}
