// internal/pipeline/fallback.go
package pipeline

import (
	"context"

	apperrors "historical-places/internal/common/errors"
	"historical-places/internal/common/logger"
	"historical-places/internal/models"
	"historical-places/internal/provider"
)

const maxAttemptCap = 3

// FallbackController drives sequential provider attempts for one
// request. Retries are reserved for transient and rate-limit failures;
// a malformed response aborts immediately since a different provider is
// unlikely to fix a prompt-level problem within the same request.
type FallbackController struct {
	client          provider.Client
	defaultProvider string
	preferenceOrder []string
	maxAttempts     int
	logger          logger.Logger
}

func NewFallbackController(client provider.Client, defaultProvider string, preferenceOrder []string, maxAttempts int, log logger.Logger) *FallbackController {
	if maxAttempts < 1 || maxAttempts > maxAttemptCap {
		maxAttempts = maxAttemptCap
	}
	return &FallbackController{
		client:          client,
		defaultProvider: defaultProvider,
		preferenceOrder: preferenceOrder,
		maxAttempts:     maxAttempts,
		logger:          log.With(map[string]interface{}{"component": "fallback"}),
	}
}

// BuildAttempts constructs the ordered attempt list: the requested
// provider first (or the process default), then the static preference
// order, deduplicated, capped at the configured attempt limit.
func (f *FallbackController) BuildAttempts(requested string) []string {
	first := requested
	if first == "" {
		first = f.defaultProvider
	}

	attempts := []string{first}
	seen := map[string]bool{first: true}

	for _, id := range f.preferenceOrder {
		if len(attempts) >= f.maxAttempts {
			break
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		attempts = append(attempts, id)
	}

	return attempts
}

// Run walks the attempt list, one in-flight call at a time. It returns
// the first structural success along with the provider that produced
// it, or the retained error once the list is exhausted or a
// non-retryable failure occurs.
func (f *FallbackController) Run(ctx context.Context, displayName, requested string) (*models.ItineraryResult, string, error) {
	attempts := f.BuildAttempts(requested)

	var lastErr error
	for i, providerID := range attempts {
		result, err := f.client.Generate(ctx, providerID, displayName)
		if err == nil {
			if i > 0 {
				f.logger.Info("fallback provider succeeded", map[string]interface{}{
					"provider": providerID,
					"attempt":  i + 1,
				})
			}
			return result, providerID, nil
		}

		lastErr = err
		if !apperrors.IsRetryable(err) {
			f.logger.Warn("non-retryable provider failure, aborting", map[string]interface{}{
				"provider": providerID,
				"class":    string(apperrors.ClassOf(err)),
				"error":    err.Error(),
			})
			return nil, "", err
		}

		if i < len(attempts)-1 {
			f.logger.Warn("provider attempt failed, advancing", map[string]interface{}{
				"provider": providerID,
				"next":     attempts[i+1],
				"class":    string(apperrors.ClassOf(err)),
			})
		}
	}

	f.logger.Error("all provider attempts exhausted", map[string]interface{}{
		"attempts": len(attempts),
		"error":    lastErr.Error(),
	})
	return nil, "", lastErr
}
