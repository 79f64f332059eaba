package discover

import (
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

// GetRecommendationPrompt asks the model for a small set of named candidate
// places with approximate coordinates and a one-line acknowledgment.
func GetRecommendationPrompt(query, language string) string {
	langLine := "Respond in English."
	if language == "zh" {
		langLine = "Respond in Traditional Chinese (place names may stay in their local language)."
	}
	return fmt.Sprintf(`You are a travel recommendation assistant. A user is searching for places with this query: %q

Recommend up to 10 real places that answer the query. %s

Return ONLY a JSON object with this exact structure, no other text:
{
  "acknowledgment": "one friendly sentence acknowledging the request",
  "places": [
    {
      "name": "place name",
      "city": "city",
      "country": "country",
      "latitude": 0.0,
      "longitude": 0.0,
      "summary": "one-sentence description",
      "tags": ["tag1", "tag2"],
      "category": "category"
    }
  ]
}

Coordinates must be your best estimate in decimal degrees. Only include places you are confident actually exist.`, query, langLine)
}

// GetSummaryPrompt asks the model for an introduction sentence and 2-3 titled
// categories grouping the given places, with one-line per-place summaries.
func GetSummaryPrompt(places []types.Place, parsed types.ParsedQuery, language string) string {
	var sb strings.Builder
	for _, p := range places {
		fmt.Fprintf(&sb, "- %s (%s): %s\n", p.Name, p.CategoryEn, truncate(p.AiDescription, 120))
	}
	langLine := "Write in English."
	if language == "zh" {
		langLine = "Write in Traditional Chinese."
	}
	return fmt.Sprintf(`A user searched for: %q

Here are the places being returned:
%s
Group these places into 2-3 themed categories and write a short introduction. %s
Use ONLY place names from the list above, spelled exactly as given.

Return ONLY a JSON object with this exact structure, no other text:
{
  "introduction": "one or two sentences introducing the results",
  "categories": [
    {
      "title": "category title",
      "places": [
        {"name": "place name from the list", "summary": "one-sentence summary"}
      ]
    }
  ]
}`, parsed.OriginalQuery, sb.String(), langLine)
}

// GetIntroPrompt asks for a single short acknowledgment sentence. Plain text,
// no JSON.
func GetIntroPrompt(query, language string) string {
	if language == "zh" {
		return fmt.Sprintf("用一句親切的話（繁體中文）回應這個旅遊搜尋請求，不要加任何其他內容：%q", query)
	}
	return fmt.Sprintf("Write exactly one short, friendly sentence acknowledging this travel search request. No other text: %q", query)
}

func truncate(str string, num int) string {
	if len(str) > num {
		return str[0:num] + "..."
	}
	return str
}
