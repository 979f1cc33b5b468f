package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	assert.False(t, repo.Enabled())

	var dest map[string]float64
	assert.ErrorIs(t, repo.Get(ctx, "averages:s1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "averages:s1", map[string]float64{"overall": 5}, time.Minute))
	assert.NoError(t, repo.Delete(ctx, "averages:s1"))
	assert.NoError(t, repo.DeleteByPattern(ctx, "averages:*"))
	n, err := repo.Incr(ctx, "averages-gen:s1")
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, repo.Close())
}
