package discover

import "strings"

// foldName normalizes a place name for identity comparison: trimmed and
// lowercased. Both the AI's naming and the catalog's naming pass through this
// before any matching or deduplication.
func foldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// nameSimilarity returns a normalized edit-distance similarity in [0, 1]
// between two place names, case-insensitive. 1 means identical.
func nameSimilarity(a, b string) float64 {
	a = foldName(a)
	b = foldName(b)
	if a == b {
		return 1
	}
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	dist := levenshtein(ra, rb)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(dist)/float64(longest)
}

// levenshtein computes edit distance with a two-row dynamic programming table.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
