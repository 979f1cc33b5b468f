package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newFakeCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()

	var dest map[string]int
	hit, err := svc.Get(ctx, "averages:a", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "averages:a", map[string]int{"n": 1}, 0))
	require.NoError(t, svc.Set(ctx, "averages:b", map[string]int{"n": 2}, 0))
	require.NoError(t, svc.Set(ctx, "other", map[string]int{"n": 3}, 0))

	hit, err = svc.Get(ctx, "averages:a", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, dest["n"])

	require.NoError(t, svc.Evict(ctx, "averages:a"))
	assert.False(t, repo.has("averages:a"))

	require.NoError(t, svc.Invalidate(ctx, averagesCachePattern))
	assert.False(t, repo.has("averages:b"))
	assert.True(t, repo.has("other"))

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestCacheServiceAveragesGenerations(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, true)
	ctx := context.Background()

	n, err := svc.Counter(ctx, averagesGenerationKey("s1"))
	require.NoError(t, err)
	assert.Zero(t, n)

	initial, err := svc.averagesKey(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "averages:s1:0:0", initial)

	svc.retireStudentAverages(ctx, "s1")
	key, err := svc.averagesKey(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "averages:s1:1:0", key)

	other, err := svc.averagesKey(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "averages:s2:0:0", other, "other students keep their entries")

	require.NoError(t, svc.Set(ctx, key, 1, 0))
	svc.retireAllAverages(ctx)
	assert.False(t, repo.has(key))
	assert.True(t, repo.has(averagesGenerationKey("s1")), "generation counters survive invalidation")
	key, err = svc.averagesKey(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "averages:s1:1:1", key)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, false)
	ctx := context.Background()

	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Set(ctx, "k", 1, 0))
	assert.Zero(t, repo.sets)

	var dest int
	hit, err := svc.Get(ctx, "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.Evict(ctx, "k"))
	assert.NoError(t, nilSvc.Bump(ctx, "k"))
	key, err := nilSvc.averagesKey(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "averages:s1:0:0", key)
}
