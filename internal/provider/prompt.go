// internal/provider/prompt.go
package provider

import "fmt"

// promptTemplate is fixed at startup and shared by every provider
// attempt. It pins the response to a strict JSON shape, including the
// not-found form, so parsing stays mechanical.
const promptTemplate = `You are a historian. Given the name of a historical figure, return a JSON object listing the places where they lived during their lifetime, in chronological order.

For the historical figure "%s", return a JSON object with the following structure:
{
  "places": [
    {
      "name": "City, Country",
      "years": "1706-1723",
      "description": "Brief description of their time there (1-2 sentences)",
      "lat": 39.9526,
      "lng": -75.1652
    }
  ]
}

Include accurate latitude and longitude coordinates for each place.

For the final place, mention when and where the person died, and where they are buried if that information is known.

If the person is not a recognized historical figure or you cannot find reliable information, return:
{
  "places": [],
  "error": "Could not find information about this person"
}

Return ONLY the JSON object, no markdown formatting or additional text.`

// BuildPrompt embeds the figure's display name into the fixed template.
func BuildPrompt(displayName string) string {
	return fmt.Sprintf(promptTemplate, displayName)
}
