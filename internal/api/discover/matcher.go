package discover

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/go-place-discovery/config"
	"github.com/FACorreiaa/go-place-discovery/internal/api/place"
	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

// Matcher reconciles AI-proposed candidates against the persisted catalog
// using name similarity and coordinate proximity.
type Matcher struct {
	repo   place.Repository
	cfg    config.SearchConfig
	logger *slog.Logger
}

func NewMatcher(repo place.Repository, cfg config.SearchConfig, logger *slog.Logger) *Matcher {
	return &Matcher{repo: repo, cfg: cfg, logger: logger}
}

// Match resolves each candidate to its best admissible catalog row, if any.
// Returns the candidate-name -> row mapping plus the candidates that matched
// nothing. Assignment is greedy: a catalog row is claimed by the first
// candidate (in input order) that selects it, not by a globally optimal
// pairing.
func (m *Matcher) Match(ctx context.Context, candidates []types.CandidatePlace) (map[string]types.Place, []types.CandidatePlace) {
	ctx, span := otel.Tracer("PlaceMatcher").Start(ctx, "Match")
	defer span.End()
	span.SetAttributes(attribute.Int("candidates.count", len(candidates)))

	matched := make(map[string]types.Place, len(candidates))
	var unmatched []types.CandidatePlace
	claimed := make(map[uuid.UUID]bool)

	for _, candidate := range candidates {
		row, ok := m.bestMatch(ctx, candidate, claimed)
		if !ok {
			unmatched = append(unmatched, candidate)
			continue
		}
		matched[candidate.Name] = row
		claimed[row.ID] = true
	}

	span.SetAttributes(attribute.Int("matched.count", len(matched)))
	return matched, unmatched
}

func (m *Matcher) bestMatch(ctx context.Context, candidate types.CandidatePlace, claimed map[uuid.UUID]bool) (types.Place, bool) {
	terms := []string{candidate.Name}
	if first := firstWord(candidate.Name); first != "" && !strings.EqualFold(first, candidate.Name) {
		terms = append(terms, first)
	}

	rows, err := m.repo.FindByNameLike(ctx, terms, m.cfg.CatalogFetchLimit)
	if err != nil {
		m.logger.WarnContext(ctx, "Catalog lookup failed during matching, treating candidate as unmatched",
			slog.String("candidate", candidate.Name), slog.Any("error", err))
		return types.Place{}, false
	}

	var best types.Place
	bestScore := -1.0
	for _, row := range rows {
		if claimed[row.ID] {
			continue
		}
		sim := nameSimilarity(candidate.Name, row.Name)
		if sim < m.cfg.MatchThreshold {
			continue
		}
		latDelta := math.Abs(candidate.Latitude - row.Latitude)
		lngDelta := math.Abs(candidate.Longitude - row.Longitude)
		if latDelta >= m.cfg.ProximityDegrees || lngDelta >= m.cfg.ProximityDegrees {
			continue
		}
		// Closer rows score higher; ties keep the first-encountered row.
		score := sim + (1 - (latDelta+lngDelta)/m.cfg.ProximityDegrees)
		if score > bestScore {
			bestScore = score
			best = row
		}
	}

	return best, bestScore >= 0
}

func firstWord(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
