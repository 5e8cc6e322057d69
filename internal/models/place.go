// internal/models/place.go
package models

import "time"

// Place is one residence within a figure's itinerary, ordered by the
// provider's asserted chronology.
type Place struct {
	Name        string  `json:"name"`
	Years       string  `json:"years"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// ItineraryResult is the parsed provider response. When NotFound is
// set, Places is empty and the result is never cached.
type ItineraryResult struct {
	Places   []Place `json:"places"`
	NotFound string  `json:"error,omitempty"`
}

// CacheRecord is the persisted form of a successful generation, keyed
// by (normalizedName, provider). Overwritten whole, never mutated.
type CacheRecord struct {
	Places   []Place   `json:"places"`
	Provider string    `json:"provider"`
	CachedAt time.Time `json:"cachedAt"`
}

// FigureStats is the per-figure usage record. Name keeps the casing of
// the first request and never changes afterward.
type FigureStats struct {
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalizedName"`
	RequestCount   int       `json:"requestCount"`
	Provider       string    `json:"provider"`
	LastRequested  time.Time `json:"lastRequested"`
}

// FetchResult is what the pipeline hands back to the transport layer.
type FetchResult struct {
	Places   []Place `json:"places"`
	Provider string  `json:"model"`
	Cached   bool    `json:"cached"`
	NotFound string  `json:"error,omitempty"`
}

// ModelInfo describes one selectable generation provider.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
