// Package server exposes the pipeline over HTTP: itinerary fetch,
// usage stats, purge, and model listing, plus health and metrics.
package server

import (
	"encoding/json"
	"net/http"

	"historical-places/internal/common/database"
	apperrors "historical-places/internal/common/errors"
	"historical-places/internal/common/logger"
	"historical-places/internal/models"
	"historical-places/internal/pipeline"
	"historical-places/internal/provider"
)

type Handler struct {
	service  *pipeline.Service
	provider provider.Client
	redis    *database.RedisClient
	logger   logger.Logger
}

func NewHandler(service *pipeline.Service, providerClient provider.Client, redis *database.RedisClient, log logger.Logger) *Handler {
	return &Handler{
		service:  service,
		provider: providerClient,
		redis:    redis,
		logger:   log.With(map[string]interface{}{"component": "http"}),
	}
}

type placesRequest struct {
	Name  string `json:"name"`
	Model string `json:"model,omitempty"`
}

// HandlePlaces handles POST /api/places.
func (h *Handler) HandlePlaces(w http.ResponseWriter, r *http.Request) {
	var req placesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = writeError(w, apperrors.NewValidationError("Name is required"))
		return
	}

	result, err := h.service.Fetch(r.Context(), req.Name, req.Model)
	if err != nil {
		h.logger.WithError(err).Warn("fetch failed", map[string]interface{}{
			"name": req.Name,
		})
		_ = writeError(w, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, result)
}

type statsResponse struct {
	Stats []pipeline.StatsEntry `json:"stats"`
}

// HandleStats handles GET /api/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListStats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("stats listing failed", nil)
		_ = writeError(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, statsResponse{Stats: entries})
}

type purgeRequest struct {
	NormalizedName string `json:"normalizedName"`
}

type purgeResponse struct {
	Success bool `json:"success"`
}

// HandlePurge handles DELETE /api/stats. Removing a figure drops its
// cache entries and its usage record together.
func (h *Handler) HandlePurge(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NormalizedName == "" {
		_ = writeError(w, apperrors.NewValidationError("normalizedName is required"))
		return
	}

	if err := h.service.Purge(r.Context(), req.NormalizedName); err != nil {
		h.logger.WithError(err).Error("purge failed", map[string]interface{}{
			"figure": req.NormalizedName,
		})
		_ = writeError(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, purgeResponse{Success: true})
}

type modelsResponse struct {
	Models []models.ModelInfo `json:"models"`
}

// HandleModels handles GET /api/models.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	available, err := h.provider.ListModels(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("model listing failed", nil)
		_ = writeError(w, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, modelsResponse{Models: available})
}

// HandleHealth handles GET /healthz.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.redis.Ping(r.Context()); err != nil {
		_ = writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"redis":  "unreachable",
		})
		return
	}
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
