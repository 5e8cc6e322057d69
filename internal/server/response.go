package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	apperrors "historical-places/internal/common/errors"
)

// errorResponse is the wire shape for every failure.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// writeError maps an error class to an HTTP status and a stable,
// user-presentable message. Internal detail stays in the logs.
func writeError(w http.ResponseWriter, err error) error {
	switch apperrors.ClassOf(err) {
	case apperrors.ClassValidation:
		message := "Invalid request"
		var stdErr *apperrors.StandardError
		if stderrors.As(err, &stdErr) && stdErr.Details != "" {
			message = stdErr.Details
		}
		return writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
	case apperrors.ClassRateLimited:
		return writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error: "API rate limit exceeded. Please wait a moment and try again.",
		})
	case apperrors.ClassTransient, apperrors.ClassMalformed:
		return writeJSON(w, http.StatusBadGateway, errorResponse{
			Error: "Failed to generate places data. Please try again.",
		})
	case apperrors.ClassStore:
		return writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error: "Storage temporarily unavailable. Please try again.",
		})
	default:
		return writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: "Internal server error",
		})
	}
}
