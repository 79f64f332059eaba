package discover

import "strings"

// Lexicon holds the read-only lookup tables the parser and supplementer work
// from: a category-keyword table (keyword -> catalog category ids) and a
// city-alias table for diacritic/alternate spellings. Injected at
// construction, never mutated.
type Lexicon struct {
	CategoryKeywords map[string][]string
	CityAliases      map[string][]string

	// keywordOrder preserves lookup priority for deterministic parsing.
	keywordOrder []string
}

// NewLexicon builds a Lexicon from the given tables. Keys are folded to
// lowercase.
func NewLexicon(categoryKeywords map[string][]string, cityAliases map[string][]string) *Lexicon {
	l := &Lexicon{
		CategoryKeywords: make(map[string][]string, len(categoryKeywords)),
		CityAliases:      make(map[string][]string, len(cityAliases)),
	}
	for kw, cats := range categoryKeywords {
		l.CategoryKeywords[strings.ToLower(kw)] = cats
	}
	for city, aliases := range cityAliases {
		l.CityAliases[strings.ToLower(city)] = aliases
	}
	for kw := range l.CategoryKeywords {
		l.keywordOrder = append(l.keywordOrder, kw)
	}
	return l
}

// DefaultLexicon returns the built-in tables the mobile client's query
// vocabulary was collected against.
func DefaultLexicon() *Lexicon {
	return NewLexicon(
		map[string][]string{
			"cafe":       {"cafe", "coffee shop", "bakery"},
			"coffee":     {"cafe", "coffee shop"},
			"restaurant": {"restaurant"},
			"ramen":      {"restaurant", "japanese restaurant"},
			"sushi":      {"restaurant", "japanese restaurant"},
			"pizza":      {"restaurant", "italian restaurant"},
			"bar":        {"bar", "pub"},
			"pub":        {"bar", "pub"},
			"museum":     {"museum", "art gallery"},
			"gallery":    {"art gallery", "museum"},
			"park":       {"park", "garden"},
			"temple":     {"temple", "shrine"},
			"church":     {"church", "cathedral"},
			"market":     {"market", "shopping"},
			"hotel":      {"hotel"},
			"beach":      {"beach"},
			"bookstore":  {"bookstore", "shopping"},
			"brunch":     {"cafe", "restaurant"},
			"dessert":    {"cafe", "bakery"},
			"nightlife":  {"bar", "club"},
		},
		map[string][]string{
			"rome":      {"rome", "roma"},
			"zurich":    {"zurich", "zürich"},
			"munich":    {"munich", "münchen"},
			"florence":  {"florence", "firenze"},
			"venice":    {"venice", "venezia"},
			"prague":    {"prague", "praha"},
			"vienna":    {"vienna", "wien"},
			"lisbon":    {"lisbon", "lisboa"},
			"seville":   {"seville", "sevilla"},
			"cologne":   {"cologne", "köln"},
			"kyoto":     {"kyoto", "kyōto"},
			"sao paulo": {"sao paulo", "são paulo"},
		},
	)
}

// CategoriesFor maps a parsed category keyword to the catalog category ids it
// covers. Unknown keywords map to themselves.
func (l *Lexicon) CategoriesFor(keyword string) []string {
	if cats, ok := l.CategoryKeywords[strings.ToLower(keyword)]; ok {
		return cats
	}
	if keyword == "" {
		return nil
	}
	return []string{strings.ToLower(keyword)}
}

// CityVariants returns the known alias spellings for a city, always including
// the city itself.
func (l *Lexicon) CityVariants(city string) []string {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil
	}
	key := strings.ToLower(city)
	variants := []string{city}
	seen := map[string]bool{key: true}
	for _, alias := range l.CityAliases[key] {
		folded := strings.ToLower(alias)
		if !seen[folded] {
			seen[folded] = true
			variants = append(variants, alias)
		}
	}
	return variants
}
