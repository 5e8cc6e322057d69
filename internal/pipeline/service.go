// Package pipeline turns a historical figure's name into a validated,
// cached, provider-sourced itinerary. One invocation per inbound query;
// no state outlives an invocation besides what lives in the stores.
package pipeline

import (
	"context"
	"strings"

	apperrors "historical-places/internal/common/errors"
	"historical-places/internal/common/logger"
	"historical-places/internal/common/metrics"
	"historical-places/internal/figures"
	"historical-places/internal/models"
	"historical-places/internal/store"
)

type Service struct {
	cache    *store.CacheStore
	stats    *store.StatsStore
	fallback *FallbackController
	logger   logger.Logger
}

func NewService(cache *store.CacheStore, stats *store.StatsStore, fallback *FallbackController, log logger.Logger) *Service {
	return &Service{
		cache:    cache,
		stats:    stats,
		fallback: fallback,
		logger:   log.With(map[string]interface{}{"component": "pipeline"}),
	}
}

// Fetch resolves rawName to an itinerary: cache lookup first, then
// fallback-controlled generation on a miss. Errors reaching the caller
// are always classified: validation, rate-limited, or a generic
// upstream failure; store trouble never surfaces.
func (s *Service) Fetch(ctx context.Context, rawName, providerID string) (*models.FetchResult, error) {
	if strings.TrimSpace(rawName) == "" {
		metrics.FetchRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, apperrors.NewValidationError("name is required")
	}

	displayName := strings.TrimSpace(rawName)
	normalized := figures.Normalize(rawName)

	requested := providerID
	if requested == "" {
		requested = s.fallback.defaultProvider
	}

	if record, ok := s.cache.Get(ctx, normalized, requested); ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		metrics.FetchRequestsTotal.WithLabelValues("cache_hit").Inc()
		s.stats.RecordHit(ctx, normalized, displayName, record.Provider)
		s.logger.Info("served from cache", map[string]interface{}{
			"figure":   normalized,
			"provider": record.Provider,
		})
		return &models.FetchResult{
			Places:   record.Places,
			Provider: record.Provider,
			Cached:   true,
		}, nil
	}
	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()

	result, usedProvider, err := s.fallback.Run(ctx, displayName, requested)
	if err != nil {
		if apperrors.IsRateLimited(err) {
			metrics.FetchRequestsTotal.WithLabelValues("rate_limited").Inc()
		} else {
			metrics.FetchRequestsTotal.WithLabelValues("upstream_error").Inc()
		}
		return nil, err
	}

	// A structurally valid answer with nothing in it is not cached and
	// not counted; the caller only sees the provider's message when
	// one was given.
	if len(result.Places) == 0 || result.NotFound != "" {
		metrics.FetchRequestsTotal.WithLabelValues("not_found").Inc()
		s.logger.Info("provider had no itinerary", map[string]interface{}{
			"figure":   normalized,
			"provider": usedProvider,
		})
		return &models.FetchResult{
			Places:   []models.Place{},
			Provider: usedProvider,
			NotFound: result.NotFound,
		}, nil
	}

	// Cached under the provider that actually answered, which may not
	// be the one the caller asked for. A failed write only means the
	// next identical request generates again.
	if err := s.cache.Put(ctx, normalized, usedProvider, result.Places); err != nil {
		s.logger.Warn("cache write failed", map[string]interface{}{
			"figure":   normalized,
			"provider": usedProvider,
			"error":    err.Error(),
		})
	}
	s.stats.RecordHit(ctx, normalized, displayName, usedProvider)

	metrics.FetchRequestsTotal.WithLabelValues("generated").Inc()
	s.logger.Info("itinerary generated", map[string]interface{}{
		"figure":   normalized,
		"provider": usedProvider,
		"places":   len(result.Places),
	})

	return &models.FetchResult{
		Places:   result.Places,
		Provider: usedProvider,
	}, nil
}

// Purge removes every cached itinerary for the figure along with its
// usage record. Idempotent.
func (s *Service) Purge(ctx context.Context, normalizedName string) error {
	if strings.TrimSpace(normalizedName) == "" {
		return apperrors.NewValidationError("normalizedName is required")
	}
	normalized := figures.Normalize(normalizedName)

	if err := s.cache.Purge(ctx, normalized); err != nil {
		return apperrors.NewStoreUnavailableError("purge", err)
	}
	if err := s.stats.Remove(ctx, normalized); err != nil {
		return apperrors.NewStoreUnavailableError("purge", err)
	}

	s.logger.Info("figure purged", map[string]interface{}{"figure": normalized})
	return nil
}

// ListStats enumerates usage records, each annotated with whether any
// cache record currently exists for the figure.
func (s *Service) ListStats(ctx context.Context) ([]StatsEntry, error) {
	records, err := s.stats.GetAll(ctx)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError("stats", err)
	}

	entries := make([]StatsEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, StatsEntry{
			FigureStats:   record,
			HasCachedData: s.cache.HasAny(ctx, record.NormalizedName),
		})
	}
	return entries, nil
}

// StatsEntry is a usage record for reporting.
type StatsEntry struct {
	models.FigureStats
	HasCachedData bool `json:"hasCachedData"`
}
