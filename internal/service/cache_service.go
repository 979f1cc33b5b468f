package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Incr(ctx context.Context, key string) (int64, error)
}

// CacheService orchestrates cache operations and related metrics. A nil
// service or a disabled one behaves as a permanent miss.
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
		defaultTTL = time.Minute
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

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Evict removes the given keys.
func (s *CacheService) Evict(ctx context.Context, keys ...string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache evict failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// Bump increments a counter key.
func (s *CacheService) Bump(ctx context.Context, key string) error {
	if !s.Enabled() {
		return nil
	}
	if _, err := s.repo.Incr(ctx, key); err != nil {
		s.logger.Warn("cache bump failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Counter reads a counter maintained by Bump. A missing counter reads as zero.
func (s *CacheService) Counter(ctx context.Context, key string) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	var n int64
	if err := s.repo.Get(ctx, key, &n); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

const (
	averagesCachePattern      = "averages:*"
	averagesGenerationPrefix  = "averages-gen:"
	averagesCatalogGeneration = averagesGenerationPrefix + "catalog"
)

func averagesGenerationKey(studentID string) string {
	return averagesGenerationPrefix + studentID
}

// averagesKey names the cache entry for a student's averages. The key embeds
// the student's and the subject catalog's write generation, so an entry
// computed from data older than the latest write is never read again.
func (s *CacheService) averagesKey(ctx context.Context, studentID string) (string, error) {
	studentGen, err := s.Counter(ctx, averagesGenerationKey(studentID))
	if err != nil {
		return "", err
	}
	catalogGen, err := s.Counter(ctx, averagesCatalogGeneration)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("averages:%s:%d:%d", studentID, studentGen, catalogGen), nil
}

// retireStudentAverages moves a student to a new averages generation after
// their grades changed.
func (s *CacheService) retireStudentAverages(ctx context.Context, studentID string) {
	_ = s.Bump(ctx, averagesGenerationKey(studentID))
}

// retireAllAverages moves every student to a new generation after a subject
// changed and drops the entries already cached.
func (s *CacheService) retireAllAverages(ctx context.Context) {
	_ = s.Bump(ctx, averagesCatalogGeneration)
	_ = s.Invalidate(ctx, averagesCachePattern)
}
