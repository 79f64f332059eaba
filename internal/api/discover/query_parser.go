package discover

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

const (
	defaultResultCount = 20
	maxResultCount     = 20
)

var (
	// "in/at/around/near <Capitalized words>"
	cityPrepositionRe = regexp.MustCompile(`(?:\b(?:in|at|around|near)\s+)((?:\p{Lu}[\p{L}'-]*)(?:\s+\p{Lu}[\p{L}'-]*)*)`)
	// "<Capitalized word> cafes/restaurants/..."
	cityBeforeCategoryRe = regexp.MustCompile(`(\p{Lu}[\p{L}'-]*)\s+(?:cafes?|coffee|restaurants?|bars?|pubs?|museums?|galler(?:y|ies)|parks?|temples?|churches|markets?|hotels?|beaches|bookstores?|spots?|places?)\b`)
)

// QueryParser extracts structured intent from a free-text travel query using
// lexical rules only. It never fails: absent data yields defaults.
type QueryParser struct {
	lexicon *Lexicon
}

func NewQueryParser(lexicon *Lexicon) *QueryParser {
	return &QueryParser{lexicon: lexicon}
}

// Parse derives the requested count, category keyword and city from the raw
// query. City candidates are not validated against a gazetteer here;
// resolution against real places happens downstream.
func (p *QueryParser) Parse(query string) types.ParsedQuery {
	parsed := types.ParsedQuery{
		Count:         defaultResultCount,
		OriginalQuery: query,
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return parsed
	}

	parsed.Count = p.parseCount(query)
	parsed.Category = p.parseCategory(query)
	parsed.City = p.parseCity(query)
	return parsed
}

// parseCount takes the first standalone integer token, clamped to [1, 20].
func (p *QueryParser) parseCount(query string) int {
	for _, token := range strings.Fields(query) {
		token = strings.Trim(token, ".,!?;:")
		n, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		if n < 1 {
			return 1
		}
		if n > maxResultCount {
			return maxResultCount
		}
		return n
	}
	return defaultResultCount
}

// parseCategory returns the keyword whose first occurrence in the query comes
// earliest. First match wins; categories are never combined.
func (p *QueryParser) parseCategory(query string) string {
	lowered := strings.ToLower(query)
	best := ""
	bestIdx := -1
	for keyword := range p.lexicon.CategoryKeywords {
		idx := strings.Index(lowered, keyword)
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx || (idx == bestIdx && keyword < best) {
			best = keyword
			bestIdx = idx
		}
	}
	return best
}

func (p *QueryParser) parseCity(query string) string {
	if m := cityPrepositionRe.FindStringSubmatch(query); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := cityBeforeCategoryRe.FindStringSubmatch(query); m != nil {
		return strings.TrimSpace(m[1])
	}

	// Fallback: first standalone capitalized word longer than 2 runes that is
	// not the leading word (where capitalization is ambiguous).
	fields := strings.Fields(query)
	for i, field := range fields {
		if i == 0 {
			continue
		}
		word := strings.Trim(field, ".,!?;:")
		runes := []rune(word)
		if len(runes) > 2 && unicode.IsUpper(runes[0]) {
			return word
		}
	}
	return ""
}
