package discover

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/FACorreiaa/go-place-discovery/internal/api/place"
	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

// Supplementer fills the gap between the requested result count and what the
// AI matching step delivered, drawing on the persisted catalog. The result
// feed is visual, so rows without a cover image are never supplemented (the
// gateway enforces this); a place without an image degrades perceived quality
// more than a slightly less relevant one.
type Supplementer struct {
	repo    place.Repository
	lexicon *Lexicon
	logger  *slog.Logger
}

func NewSupplementer(repo place.Repository, lexicon *Lexicon, logger *slog.Logger) *Supplementer {
	return &Supplementer{repo: repo, lexicon: lexicon, logger: logger}
}

// Supplement returns up to needed*2 catalog rows for the city (the buffer
// anticipates losses during category grouping). Dedup by case-insensitive
// trimmed name happens continuously while accumulating, seeded with the
// already-selected names.
func (s *Supplementer) Supplement(ctx context.Context, city, category string, excludeIDs []uuid.UUID, excludeNames []string, needed int) []types.Place {
	ctx, span := otel.Tracer("ShortfallSupplementer").Start(ctx, "Supplement")
	defer span.End()
	span.SetAttributes(
		attribute.String("city", city),
		attribute.String("category", category),
		attribute.Int("needed", needed),
	)

	if needed <= 0 || city == "" {
		return nil
	}
	target := needed * 2
	variants := s.lexicon.CityVariants(city)

	seen := make(map[string]bool, len(excludeNames))
	for _, name := range excludeNames {
		seen[foldName(name)] = true
	}
	excluded := make(map[uuid.UUID]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	var supplements []types.Place
	take := func(rows []types.Place) {
		for _, row := range rows {
			if len(supplements) >= target {
				return
			}
			if excluded[row.ID] || seen[foldName(row.Name)] {
				continue
			}
			seen[foldName(row.Name)] = true
			excluded[row.ID] = true
			supplements = append(supplements, row)
		}
	}

	if category == "" {
		// No category extracted: straight to the city-only pass.
		rows, err := s.repo.FindByCityWithCover(ctx, variants, target+len(excludeIDs))
		if err != nil {
			s.logger.WarnContext(ctx, "City-only supplement query failed", slog.Any("error", err))
			return supplements
		}
		take(rows)
		span.SetAttributes(attribute.Int("supplements.count", len(supplements)))
		return supplements
	}

	categories := s.lexicon.CategoriesFor(category)
	rows, err := s.repo.FindByCityAndCategory(ctx, variants, categories, excludeIDs, target+len(excludeIDs))
	if err != nil {
		s.logger.WarnContext(ctx, "Primary supplement query failed", slog.Any("error", err))
	} else {
		take(rows)
	}

	if len(supplements) < target {
		// Secondary pass: relax the category filter to a substring match on
		// the place name using each category keyword.
		keywords := append([]string{category}, categories...)
		for _, keyword := range keywords {
			if len(supplements) >= target {
				break
			}
			rows, err := s.repo.FindByNameKeywordInCity(ctx, variants, keyword, target+len(excludeIDs))
			if err != nil {
				s.logger.WarnContext(ctx, "Secondary supplement query failed",
					slog.String("keyword", keyword), slog.Any("error", err))
				continue
			}
			take(rows)
		}
	}

	span.SetAttributes(attribute.Int("supplements.count", len(supplements)))
	return supplements
}
