package pipeline

import (
	"context"
	"testing"

	apperrors "historical-places/internal/common/errors"
	"historical-places/internal/common/logger"
	"historical-places/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient scripts per-provider outcomes and records call order.
type stubClient struct {
	results map[string]*models.ItineraryResult
	errs    map[string]error
	models  []models.ModelInfo
	calls   []string
}

func (s *stubClient) Generate(_ context.Context, providerID, _ string) (*models.ItineraryResult, error) {
	s.calls = append(s.calls, providerID)
	if err, ok := s.errs[providerID]; ok {
		return nil, err
	}
	if result, ok := s.results[providerID]; ok {
		return result, nil
	}
	return &models.ItineraryResult{Places: stubPlaces()}, nil
}

func (s *stubClient) ListModels(_ context.Context) ([]models.ModelInfo, error) {
	return s.models, nil
}

func stubPlaces() []models.Place {
	return []models.Place{
		{
			Name:        "Vinci, Italy",
			Years:       "1452-1466",
			Description: "Born in the Tuscan hill town of Vinci.",
			Lat:         43.7836,
			Lng:         10.9231,
		},
	}
}

func newController(client *stubClient) *FallbackController {
	return NewFallbackController(
		client,
		"gemini-2.0-flash",
		[]string{"gemini-2.0-flash", "gemini-2.5-flash", "gemini-flash-latest"},
		3,
		logger.NewNoOpLogger(),
	)
}

func TestBuildAttempts(t *testing.T) {
	controller := newController(&stubClient{})

	tests := []struct {
		name      string
		requested string
		want      []string
	}{
		{
			name:      "empty request uses default first",
			requested: "",
			want:      []string{"gemini-2.0-flash", "gemini-2.5-flash", "gemini-flash-latest"},
		},
		{
			name:      "requested provider leads and is deduplicated",
			requested: "gemini-2.5-flash",
			want:      []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-flash-latest"},
		},
		{
			name:      "unknown provider still leads, list capped at three",
			requested: "gemini-exotic",
			want:      []string{"gemini-exotic", "gemini-2.0-flash", "gemini-2.5-flash"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, controller.BuildAttempts(tt.requested))
		})
	}
}

func TestBuildAttempts_ConfiguredLimit(t *testing.T) {
	controller := NewFallbackController(
		&stubClient{},
		"gemini-2.0-flash",
		[]string{"gemini-2.0-flash", "gemini-2.5-flash", "gemini-flash-latest"},
		1,
		logger.NewNoOpLogger(),
	)

	assert.Equal(t, []string{"gemini-2.0-flash"}, controller.BuildAttempts(""))
}

func TestRun_FirstProviderSucceeds(t *testing.T) {
	client := &stubClient{}
	controller := newController(client)

	result, used, err := controller.Run(context.Background(), "Leonardo da Vinci", "")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", used)
	assert.Len(t, result.Places, 1)
	assert.Equal(t, []string{"gemini-2.0-flash"}, client.calls)
}

func TestRun_TransientFailureAdvances(t *testing.T) {
	client := &stubClient{
		errs: map[string]error{
			"gemini-2.0-flash": apperrors.NewProviderUnavailableError("gemini-2.0-flash", nil),
		},
	}
	controller := newController(client)

	result, used, err := controller.Run(context.Background(), "Leonardo da Vinci", "")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", used)
	assert.Len(t, result.Places, 1)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-2.5-flash"}, client.calls)
}

func TestRun_RateLimitAdvances(t *testing.T) {
	client := &stubClient{
		errs: map[string]error{
			"gemini-2.0-flash": apperrors.NewRateLimitedError("gemini-2.0-flash", nil),
			"gemini-2.5-flash": apperrors.NewRateLimitedError("gemini-2.5-flash", nil),
		},
	}
	controller := newController(client)

	_, used, err := controller.Run(context.Background(), "Leonardo da Vinci", "")
	require.NoError(t, err)
	assert.Equal(t, "gemini-flash-latest", used)
	assert.Len(t, client.calls, 3)
}

func TestRun_MalformedResponseAbortsImmediately(t *testing.T) {
	client := &stubClient{
		errs: map[string]error{
			"gemini-2.0-flash": apperrors.NewMalformedResponseError("gemini-2.0-flash", nil),
		},
	}
	controller := newController(client)

	_, _, err := controller.Run(context.Background(), "Leonardo da Vinci", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformed(err))
	assert.Equal(t, []string{"gemini-2.0-flash"}, client.calls,
		"no further attempts after a malformed response")
}

func TestRun_ExhaustionRetainsLastError(t *testing.T) {
	client := &stubClient{
		errs: map[string]error{
			"gemini-2.0-flash":    apperrors.NewProviderUnavailableError("gemini-2.0-flash", nil),
			"gemini-2.5-flash":    apperrors.NewProviderUnavailableError("gemini-2.5-flash", nil),
			"gemini-flash-latest": apperrors.NewRateLimitedError("gemini-flash-latest", nil),
		},
	}
	controller := newController(client)

	_, _, err := controller.Run(context.Background(), "Leonardo da Vinci", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimited(err), "last attempt's error is the one reported")
	assert.Len(t, client.calls, 3)
}
