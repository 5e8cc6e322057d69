// internal/store/cache.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"historical-places/internal/common/database"
	"historical-places/internal/common/logger"
	"historical-places/internal/common/metrics"
	"historical-places/internal/models"
)

const cachePrefix = "cache:"

// CacheStore persists itinerary results keyed by (normalizedName,
// provider) with a fixed retention window. Every operation fails soft:
// a broken store degrades reads to misses and writes to no-ops, it
// never fails the surrounding request.
type CacheStore struct {
	redis  *database.RedisClient
	ttl    time.Duration
	logger logger.Logger
}

func NewCacheStore(redis *database.RedisClient, ttl time.Duration, log logger.Logger) *CacheStore {
	return &CacheStore{
		redis:  redis,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "cache-store"}),
	}
}

func cacheKey(normalizedName, provider string) string {
	return fmt.Sprintf("%s%s:%s", cachePrefix, normalizedName, provider)
}

// Get returns the cached record for (normalizedName, provider), or
// absent. Store errors are logged and reported as absent.
func (s *CacheStore) Get(ctx context.Context, normalizedName, provider string) (*models.CacheRecord, bool) {
	raw, err := s.redis.Get(ctx, cacheKey(normalizedName, provider))
	if err != nil {
		if !isRedisNil(err) {
			s.logger.Warn("cache read failed, treating as miss", map[string]interface{}{
				"figure": normalizedName,
				"error":  err.Error(),
			})
			metrics.StoreErrorsTotal.WithLabelValues("cache_get").Inc()
		}
		return nil, false
	}

	var record models.CacheRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		s.logger.Warn("cache record corrupt, treating as miss", map[string]interface{}{
			"figure": normalizedName,
			"error":  err.Error(),
		})
		return nil, false
	}

	return &record, true
}

// Put writes a record under (normalizedName, provider) with the fixed
// TTL. The previous record for that key, if any, is overwritten whole.
func (s *CacheStore) Put(ctx context.Context, normalizedName, provider string, places []models.Place) error {
	record := models.CacheRecord{
		Places:   places,
		Provider: provider,
		CachedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal cache record: %w", err)
	}

	if err := s.redis.Set(ctx, cacheKey(normalizedName, provider), data, s.ttl); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("cache_put").Inc()
		return fmt.Errorf("cache write: %w", err)
	}
	return nil
}

// Purge deletes every cached record for the figure across all
// providers. Purging a figure with no records is a no-op success.
func (s *CacheStore) Purge(ctx context.Context, normalizedName string) error {
	keys, err := s.redis.Keys(ctx, cacheKey(normalizedName, "*"))
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("cache_purge").Inc()
		return fmt.Errorf("cache key scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := s.redis.Del(ctx, keys...); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("cache_purge").Inc()
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// HasAny reports whether any record exists for the figure, across all
// providers. Fails soft to false.
func (s *CacheStore) HasAny(ctx context.Context, normalizedName string) bool {
	keys, err := s.redis.Keys(ctx, cacheKey(normalizedName, "*"))
	if err != nil {
		s.logger.Warn("cache existence check failed", map[string]interface{}{
			"figure": normalizedName,
			"error":  err.Error(),
		})
		return false
	}
	return len(keys) > 0
}
