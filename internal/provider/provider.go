// Package provider invokes the external generation backends that turn
// a historical figure's name into an itinerary of residences. Backends
// are interchangeable and identified by a string id; the rest of the
// pipeline only sees the Client interface and classified errors.
package provider

import (
	"context"

	"historical-places/internal/models"
)

// Client is implemented by every generation backend.
type Client interface {
	// Generate asks the given provider for the figure's itinerary.
	// A structural success may still carry zero places or a not-found
	// message; both parse fine and are not errors here. Failures are
	// classified on the returned error (rate-limited, transient,
	// malformed) so the fallback controller never inspects text.
	Generate(ctx context.Context, providerID, displayName string) (*models.ItineraryResult, error)

	// ListModels enumerates the selectable provider ids.
	ListModels(ctx context.Context) ([]models.ModelInfo, error)
}
