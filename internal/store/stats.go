// internal/store/stats.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"historical-places/internal/common/database"
	"historical-places/internal/common/logger"
	"historical-places/internal/common/metrics"
	"historical-places/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	statsPrefix  = "stats:"
	statsListKey = "stats:all_figures"
)

// StatsStore tracks per-figure request counts plus a membership set of
// every known figure. The record is written before the set membership
// so a reader scanning the set can always resolve a record; that
// ordering is best-effort, not a transaction. The read-modify-write on
// the count is likewise unguarded, so concurrent requests for one
// figure can lose an update. Accepted.
type StatsStore struct {
	redis  *database.RedisClient
	logger logger.Logger
}

func NewStatsStore(redis *database.RedisClient, log logger.Logger) *StatsStore {
	return &StatsStore{
		redis:  redis,
		logger: log.With(map[string]interface{}{"component": "stats-store"}),
	}
}

func statsKey(normalizedName string) string {
	return statsPrefix + normalizedName
}

// RecordHit increments the figure's request count, creating the record
// on first sight. The display name is fixed at first write. Failures
// are logged and swallowed.
func (s *StatsStore) RecordHit(ctx context.Context, normalizedName, displayName, provider string) {
	key := statsKey(normalizedName)

	existing, err := s.read(ctx, key)
	if err != nil {
		s.logger.Warn("stats read failed, skipping update", map[string]interface{}{
			"figure": normalizedName,
			"error":  err.Error(),
		})
		metrics.StoreErrorsTotal.WithLabelValues("stats_record").Inc()
		return
	}

	record := models.FigureStats{
		Name:           displayName,
		NormalizedName: normalizedName,
		RequestCount:   1,
		Provider:       provider,
		LastRequested:  time.Now().UTC(),
	}
	if existing != nil {
		record.Name = existing.Name // keep original casing from first request
		record.RequestCount = existing.RequestCount + 1
	}

	data, err := json.Marshal(record)
	if err != nil {
		s.logger.Error("stats marshal failed", map[string]interface{}{
			"figure": normalizedName,
			"error":  err.Error(),
		})
		return
	}

	// Record first, then set membership
	if err := s.redis.Set(ctx, key, data, 0); err != nil {
		s.logger.Warn("stats write failed", map[string]interface{}{
			"figure": normalizedName,
			"error":  err.Error(),
		})
		metrics.StoreErrorsTotal.WithLabelValues("stats_record").Inc()
		return
	}
	if err := s.redis.SAdd(ctx, statsListKey, normalizedName); err != nil {
		s.logger.Warn("stats membership write failed", map[string]interface{}{
			"figure": normalizedName,
			"error":  err.Error(),
		})
		metrics.StoreErrorsTotal.WithLabelValues("stats_record").Inc()
	}
}

// GetAll enumerates every known figure's stats, descending by request
// count. Ordering among equal counts follows set enumeration order and
// is not deterministic.
func (s *StatsStore) GetAll(ctx context.Context) ([]models.FigureStats, error) {
	names, err := s.redis.SMembers(ctx, statsListKey)
	if err != nil {
		return nil, fmt.Errorf("stats membership scan: %w", err)
	}
	if len(names) == 0 {
		return []models.FigureStats{}, nil
	}

	stats := make([]models.FigureStats, 0, len(names))
	for _, name := range names {
		record, err := s.read(ctx, statsKey(name))
		if err != nil || record == nil {
			// membership without a record can happen if a purge raced
			continue
		}
		if record.RequestCount < 1 {
			record.RequestCount = 1
		}
		stats = append(stats, *record)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].RequestCount > stats[j].RequestCount
	})

	return stats, nil
}

// Remove deletes the figure's stats record and its set membership.
// Used when a purge removes the figure entirely.
func (s *StatsStore) Remove(ctx context.Context, normalizedName string) error {
	if err := s.redis.Del(ctx, statsKey(normalizedName)); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("stats_remove").Inc()
		return fmt.Errorf("stats delete: %w", err)
	}
	if err := s.redis.SRem(ctx, statsListKey, normalizedName); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("stats_remove").Inc()
		return fmt.Errorf("stats membership delete: %w", err)
	}
	return nil
}

func (s *StatsStore) read(ctx context.Context, key string) (*models.FigureStats, error) {
	raw, err := s.redis.Get(ctx, key)
	if err != nil {
		if isRedisNil(err) {
			return nil, nil
		}
		return nil, err
	}

	var record models.FigureStats
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("stats record corrupt: %w", err)
	}
	return &record, nil
}

func isRedisNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
