package discover

import (
	"errors"
	"strings"
)

var errNoJSONObject = errors.New("no balanced JSON object found in text")

// extractJSONBlock pulls the first balanced {...} substring out of arbitrary
// model output. Markdown code fences are stripped first. Callers treat a
// failure here as a structural parse failure, not an exception: it triggers
// the documented raw-data fallback.
func extractJSONBlock(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", errNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
			// string contents don't affect nesting
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errNoJSONObject
}
