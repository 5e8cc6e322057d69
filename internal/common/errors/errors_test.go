package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	cause := errors.New("upstream said no")

	tests := []struct {
		name      string
		err       error
		class     ErrorClass
		retryable bool
	}{
		{"validation", NewValidationError("name is required"), ClassValidation, false},
		{"rate limited", NewRateLimitedError("gemini-2.0-flash", cause), ClassRateLimited, true},
		{"provider unavailable", NewProviderUnavailableError("gemini-2.0-flash", cause), ClassTransient, true},
		{"malformed response", NewMalformedResponseError("gemini-2.0-flash", cause), ClassMalformed, false},
		{"store unavailable", NewStoreUnavailableError("cache.get", cause), ClassStore, true},
		{"internal", NewInternalError("boom", cause), ClassInternal, false},
		{"plain error", errors.New("plain"), ClassInternal, false},
		{"nil cause detail", NewRateLimitedError("gemini-2.0-flash", nil), ClassRateLimited, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.class, ClassOf(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
		})
	}
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("attempt 2: %w", NewRateLimitedError("gemini-2.5-flash", nil))

	assert.True(t, IsRateLimited(err))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, ClassRateLimited, ClassOf(err))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewProviderUnavailableError("gemini-2.0-flash", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Details, "connection refused")
}
