package discover

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-place-discovery/config"
	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

// TextGenerator is the narrow AI surface the pipeline consumes: one prompt in,
// one raw completion out. The generative_ai client satisfies it.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error)
}

// SummaryGenerator asks the AI for a narrative blurb and 2-3 titled category
// groupings over a batch of catalog rows. It never fails: unusable AI output
// degrades to a flat, ungrouped result built from the rows themselves.
type SummaryGenerator struct {
	ai          TextGenerator
	cfg         config.SearchConfig
	temperature float32
	logger      *slog.Logger
}

func NewSummaryGenerator(ai TextGenerator, cfg config.SearchConfig, temperature float32, logger *slog.Logger) *SummaryGenerator {
	return &SummaryGenerator{ai: ai, cfg: cfg, temperature: temperature, logger: logger}
}

type summaryGroup struct {
	Title  string
	RowIDs []uuid.UUID
}

type summaryOutput struct {
	Intro        string
	Groups       []summaryGroup
	RowSummaries map[uuid.UUID]string
	Degraded     bool
}

// Generate produces the summary output for the given rows. Degraded is set
// when the AI call failed or returned unusable structure; callers then fall
// back to stored descriptions and no grouping.
func (g *SummaryGenerator) Generate(ctx context.Context, rows []types.Place, parsed types.ParsedQuery, language string) summaryOutput {
	ctx, span := otel.Tracer("SummaryGenerator").Start(ctx, "Generate")
	defer span.End()
	span.SetAttributes(attribute.Int("rows.count", len(rows)))

	degraded := summaryOutput{Degraded: true}
	if len(rows) == 0 {
		return degraded
	}

	genCtx, cancel := context.WithTimeout(ctx, g.cfg.SummaryTimeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](g.temperature)}
	text, err := g.ai.GenerateContent(genCtx, GetSummaryPrompt(rows, parsed, language), cfg)
	if err != nil {
		g.logger.WarnContext(ctx, "Summary generation failed, falling back to raw data", slog.Any("error", err))
		return degraded
	}

	jsonStr, err := extractJSONBlock(text)
	if err != nil {
		g.logger.WarnContext(ctx, "Summary response contained no JSON object, falling back to raw data", slog.Any("error", err))
		return degraded
	}

	var aiResult struct {
		Introduction string `json:"introduction"`
		Categories   []struct {
			Title  string `json:"title"`
			Places []struct {
				Name    string `json:"name"`
				Summary string `json:"summary"`
			} `json:"places"`
		} `json:"categories"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &aiResult); err != nil {
		g.logger.WarnContext(ctx, "Failed to parse summary JSON, falling back to raw data", slog.Any("error", err))
		return degraded
	}
	if len(aiResult.Categories) == 0 {
		g.logger.WarnContext(ctx, "Summary response missing category structure, falling back to raw data")
		return degraded
	}

	// Re-bind AI place names to input rows. Rows here are already
	// geographically verified, so only the name similarity constraint
	// applies, at the stricter rebind threshold.
	out := summaryOutput{
		Intro:        aiResult.Introduction,
		RowSummaries: make(map[uuid.UUID]string),
	}
	claimed := make(map[uuid.UUID]bool)
	for _, category := range aiResult.Categories {
		group := summaryGroup{Title: category.Title}
		for _, aiPlace := range category.Places {
			row, ok := g.rebind(aiPlace.Name, rows, claimed)
			if !ok {
				continue
			}
			claimed[row.ID] = true
			group.RowIDs = append(group.RowIDs, row.ID)
			if aiPlace.Summary != "" {
				out.RowSummaries[row.ID] = aiPlace.Summary
			}
		}
		// Single-item categories read as noise; drop them.
		if len(group.RowIDs) >= 2 {
			out.Groups = append(out.Groups, group)
		}
	}

	span.SetAttributes(attribute.Int("groups.count", len(out.Groups)))
	return out
}

func (g *SummaryGenerator) rebind(name string, rows []types.Place, claimed map[uuid.UUID]bool) (types.Place, bool) {
	var best types.Place
	bestSim := -1.0
	for _, row := range rows {
		if claimed[row.ID] {
			continue
		}
		sim := nameSimilarity(name, row.Name)
		if sim < g.cfg.RebindThreshold {
			continue
		}
		if sim > bestSim {
			bestSim = sim
			best = row
		}
	}
	return best, bestSim >= 0
}
