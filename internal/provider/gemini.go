// internal/provider/gemini.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	apperrors "historical-places/internal/common/errors"
	"historical-places/internal/common/httpclient"
	"historical-places/internal/common/logger"
	"historical-places/internal/common/metrics"
	"historical-places/internal/models"
)

// GeminiClient calls the Generative Language REST API. The provider id
// is the Gemini model id; every configured id shares the same API key
// and base URL.
type GeminiClient struct {
	baseURL string
	apiKey  string
	client  *httpclient.Client
	logger  logger.Logger
}

func NewGeminiClient(baseURL, apiKey string, timeout time.Duration, log logger.Logger) *GeminiClient {
	return &GeminiClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpclient.NewClient(timeout),
		logger:  log.With(map[string]interface{}{"component": "gemini-client"}),
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *GeminiClient) Generate(ctx context.Context, providerID, displayName string) (*models.ItineraryResult, error) {
	start := time.Now()
	result, err := c.generate(ctx, providerID, displayName)
	metrics.ProviderLatency.WithLabelValues(providerID).Observe(time.Since(start).Seconds())

	status := "success"
	if err != nil {
		status = strings.ToLower(string(apperrors.ClassOf(err)))
	}
	metrics.ProviderAttemptsTotal.WithLabelValues(providerID, status).Inc()

	return result, err
}

func (c *GeminiClient) generate(ctx context.Context, providerID, displayName string) (*models.ItineraryResult, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: BuildPrompt(displayName)}}}},
	})
	if err != nil {
		return nil, apperrors.NewInternalError("encode generation request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, providerID, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, apperrors.NewInternalError("build generation request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// network failure, unreachable host, timeout
		return nil, apperrors.NewProviderUnavailableError(providerID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(providerID, resp.StatusCode)
	}

	var apiResponse generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, apperrors.NewMalformedResponseError(providerID, err)
	}

	text := candidateText(&apiResponse)
	if text == "" {
		return nil, apperrors.NewMalformedResponseError(providerID, fmt.Errorf("no candidate text in response"))
	}

	itinerary, err := ParseItinerary(text)
	if err != nil {
		return nil, apperrors.NewMalformedResponseError(providerID, err)
	}

	c.logger.Debug("generation completed", map[string]interface{}{
		"provider":   providerID,
		"placeCount": len(itinerary.Places),
		"notFound":   itinerary.NotFound != "",
	})

	return itinerary, nil
}

// classifyStatus maps the provider's HTTP status onto the error
// taxonomy. This is the only place a status code is interpreted;
// downstream decisions go through the error class.
func classifyStatus(providerID string, status int) error {
	cause := fmt.Errorf("status %d", status)
	switch {
	case status == http.StatusTooManyRequests:
		return apperrors.NewRateLimitedError(providerID, cause)
	case status >= 500:
		return apperrors.NewProviderUnavailableError(providerID, cause)
	default:
		return apperrors.NewInternalError(fmt.Sprintf("provider '%s' rejected request", providerID), cause)
	}
}

func candidateText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// --- model listing ---

type listModelsResponse struct {
	Models []struct {
		Name                       string   `json:"name"`
		DisplayName                string   `json:"displayName"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

var excludedModelPattern = regexp.MustCompile(`(?i)robotics|experimental`)

// ListModels returns the Gemini models that support generateContent,
// sorted by display name.
func (c *GeminiClient) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	url := fmt.Sprintf("%s/models?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewInternalError("build model list request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.NewProviderUnavailableError("models", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus("models", resp.StatusCode)
	}

	var listed listModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		return nil, apperrors.NewMalformedResponseError("models", err)
	}

	infos := make([]models.ModelInfo, 0, len(listed.Models))
	for _, m := range listed.Models {
		if !supportsGenerate(m.SupportedGenerationMethods) {
			continue
		}
		if !strings.Contains(m.DisplayName, "Gemini") || excludedModelPattern.MatchString(m.DisplayName) {
			continue
		}
		infos = append(infos, models.ModelInfo{
			ID:   strings.TrimPrefix(m.Name, "models/"),
			Name: m.DisplayName,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	return infos, nil
}

func supportsGenerate(methods []string) bool {
	for _, m := range methods {
		if m == "generateContent" {
			return true
		}
	}
	return false
}
