package discover

import (
	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

const (
	sourceAI    = "ai"
	sourceCache = "cache"
)

// resultFromPlace converts a catalog row into the pipeline's output unit.
// summary overrides the stored description when non-empty.
func resultFromPlace(p types.Place, summary, source string) types.PlaceResult {
	if summary == "" {
		summary = p.AiDescription
	}
	return types.PlaceResult{
		ID:           p.ID.String(),
		Name:         p.Name,
		Summary:      summary,
		CoverImage:   p.CoverImage,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		City:         p.City,
		Country:      p.Country,
		Rating:       p.Rating,
		RatingCount:  p.RatingCount,
		Tags:         p.AiTags,
		IsVerified:   p.Verified(),
		Source:       source,
		Address:      p.Address,
		PhoneNumber:  p.PhoneNumber,
		Website:      p.Website,
		OpeningHours: p.OpeningHours,
	}
}

// assembleResults merges AI-matched results with supplements into one ordered,
// deduplicated list truncated to count, and rebuilds the category groups
// against the final list. Ordering: AI-matched first, then supplements the
// summarizer grouped, then ungrouped supplements. An entry colliding with an
// earlier one on either id or folded name is disqualified.
func assembleResults(aiResults, supplements []types.PlaceResult, groups []types.CategoryGroup, count int) ([]types.PlaceResult, []types.CategoryGroup) {
	grouped := make(map[string]bool)
	for _, g := range groups {
		for _, p := range g.Places {
			grouped[p.ID] = true
		}
	}

	ordered := make([]types.PlaceResult, 0, len(aiResults)+len(supplements))
	ordered = append(ordered, aiResults...)
	for _, r := range supplements {
		if grouped[r.ID] {
			ordered = append(ordered, r)
		}
	}
	for _, r := range supplements {
		if !grouped[r.ID] {
			ordered = append(ordered, r)
		}
	}

	seenIDs := make(map[string]bool)
	seenNames := make(map[string]bool)
	final := make([]types.PlaceResult, 0, count)
	for _, r := range ordered {
		if len(final) >= count {
			break
		}
		name := foldName(r.Name)
		if seenIDs[r.ID] || seenNames[name] {
			continue
		}
		seenIDs[r.ID] = true
		seenNames[name] = true
		final = append(final, r)
	}

	return final, rebuildGroups(groups, final)
}

// rebuildGroups restricts each group to places present in the final truncated
// list and drops groups that fall below two members.
func rebuildGroups(groups []types.CategoryGroup, final []types.PlaceResult) []types.CategoryGroup {
	byID := make(map[string]types.PlaceResult, len(final))
	for _, r := range final {
		byID[r.ID] = r
	}

	var rebuilt []types.CategoryGroup
	for _, g := range groups {
		kept := types.CategoryGroup{Title: g.Title}
		for _, p := range g.Places {
			if r, ok := byID[p.ID]; ok {
				kept.Places = append(kept.Places, r)
			}
		}
		if len(kept.Places) >= 2 {
			rebuilt = append(rebuilt, kept)
		}
	}
	return rebuilt
}
