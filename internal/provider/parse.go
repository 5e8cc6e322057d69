// internal/provider/parse.go
package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"historical-places/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

var codeFencePattern = regexp.MustCompile("```json\n?|\n?```")

// itinerarySchema is the structural contract a provider response must
// satisfy after framing is stripped. Anything that fails here is a
// malformed response, never retried.
var itinerarySchema = map[string]interface{}{
	"type":     "object",
	"required": []string{"places"},
	"properties": map[string]interface{}{
		"places": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []string{"name", "years", "description", "lat", "lng"},
				"properties": map[string]interface{}{
					"name":        map[string]interface{}{"type": "string"},
					"years":       map[string]interface{}{"type": "string"},
					"description": map[string]interface{}{"type": "string"},
					"lat":         map[string]interface{}{"type": "number"},
					"lng":         map[string]interface{}{"type": "number"},
				},
			},
		},
		"error": map[string]interface{}{"type": "string"},
	},
}

// ParseItinerary turns raw provider text into an ItineraryResult.
// Code-fence framing is stripped before structural parsing. When an
// error string is present the places are dropped, keeping the
// not-found invariant.
func ParseItinerary(text string) (*models.ItineraryResult, error) {
	cleaned := strings.TrimSpace(codeFencePattern.ReplaceAllString(text, ""))
	if cleaned == "" {
		return nil, fmt.Errorf("empty response body")
	}

	var document map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &document); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	schemaLoader := gojsonschema.NewGoLoader(itinerarySchema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("response shape invalid: %v", errs)
	}

	var itinerary models.ItineraryResult
	if err := json.Unmarshal([]byte(cleaned), &itinerary); err != nil {
		return nil, fmt.Errorf("decode itinerary: %w", err)
	}

	if itinerary.NotFound != "" {
		itinerary.Places = nil
	}

	return &itinerary, nil
}
