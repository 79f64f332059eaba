package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	appmetrics "github.com/FACorreiaa/go-place-discovery/app/observability/metrics"
	"github.com/FACorreiaa/go-place-discovery/config"
	"github.com/FACorreiaa/go-place-discovery/internal/api/quota"
	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

const stageComplete = "complete"

// Ensure implementation satisfies the interface
var _ SearchService = (*SearchServiceImpl)(nil)

// SearchService turns a free-text travel query into a ranked, deduplicated,
// categorized list of places.
type SearchService interface {
	Search(ctx context.Context, req types.SearchRequest) (*types.SearchResponse, error)
}

// SearchServiceImpl orchestrates the pipeline: parse, quota check, AI
// recommendation, catalog matching, shortfall supplementation, summary
// generation, assembly, image backfill, quota consumption. Every external
// call site owns its own fallback; the pipeline virtually always returns a
// usable, possibly degraded, result.
type SearchServiceImpl struct {
	logger       *slog.Logger
	cfg          config.SearchConfig
	temperature  float32
	dailyLimit   int
	ai           TextGenerator
	parser       *QueryParser
	matcher      *Matcher
	supplementer *Supplementer
	summarizer   *SummaryGenerator
	backfiller   *ImageBackfiller
	worker       *PersistWorker
	ledger       quota.Ledger
	metrics      *appmetrics.AppMetrics
}

func NewSearchService(
	ai TextGenerator,
	parser *QueryParser,
	matcher *Matcher,
	supplementer *Supplementer,
	summarizer *SummaryGenerator,
	backfiller *ImageBackfiller,
	worker *PersistWorker,
	ledger quota.Ledger,
	cfg config.SearchConfig,
	temperature float32,
	dailyLimit int,
	metrics *appmetrics.AppMetrics,
	logger *slog.Logger,
) *SearchServiceImpl {
	return &SearchServiceImpl{
		logger:       logger,
		cfg:          cfg,
		temperature:  temperature,
		dailyLimit:   dailyLimit,
		ai:           ai,
		parser:       parser,
		matcher:      matcher,
		supplementer: supplementer,
		summarizer:   summarizer,
		backfiller:   backfiller,
		worker:       worker,
		ledger:       ledger,
		metrics:      metrics,
	}
}

type recommendation struct {
	Acknowledgment string                 `json:"acknowledgment"`
	Places         []types.CandidatePlace `json:"places"`
}

// Search runs the full pipeline. The only error it returns is
// quota.ErrQuotaExceeded, alongside the rejection payload; everything else
// degrades in place.
func (s *SearchServiceImpl) Search(ctx context.Context, req types.SearchRequest) (*types.SearchResponse, error) {
	ctx, span := otel.Tracer("DiscoverSearch").Start(ctx, "Search")
	defer span.End()

	l := s.logger.With(slog.String("method", "Search"))
	parsed := s.parser.Parse(req.Query)
	language := req.Language
	if language == "" {
		language = "en"
	}
	span.SetAttributes(
		attribute.Int("query.count", parsed.Count),
		attribute.String("query.category", parsed.Category),
		attribute.String("query.city", parsed.City),
	)

	// Quota gate: only applies when a user identity is attached. Rejection
	// happens before any AI or catalog work.
	if req.UserID != "" {
		allowed, err := s.ledger.CanSearch(ctx, req.UserID)
		if err != nil {
			l.WarnContext(ctx, "Quota check failed, allowing search", slog.Any("error", err))
		} else if !allowed {
			if s.metrics != nil {
				s.metrics.QuotaRejectionsTotal.Add(ctx, 1)
			}
			span.SetStatus(codes.Error, "quota exceeded")
			return &types.SearchResponse{
				Success:        false,
				Places:         []types.PlaceResult{},
				QuotaRemaining: 0,
				Stage:          stageComplete,
				Error:          "daily search quota exceeded",
			}, quota.ErrQuotaExceeded
		}
	}

	rec := s.fetchRecommendations(ctx, parsed, language, l)

	matchedRows, aiResults := s.matchCandidates(ctx, rec.Places)

	// AI produced nothing usable and no city was extracted: nothing to
	// supplement from, so return an empty, non-error result.
	if len(matchedRows) == 0 && len(rec.Places) == 0 && parsed.City == "" {
		l.InfoContext(ctx, "No AI results and no city extracted, returning empty result")
		return s.finish(ctx, req, &types.SearchResponse{
			Success:        true,
			Acknowledgment: rec.Acknowledgment,
			Places:         []types.PlaceResult{},
			Stage:          stageComplete,
		}), nil
	}

	supplements := s.fillShortfall(ctx, parsed, matchedRows, rec.Places)

	allRows := make([]types.Place, 0, len(matchedRows)+len(supplements))
	allRows = append(allRows, matchedRows...)
	allRows = append(allRows, supplements...)

	if len(allRows) == 0 {
		l.InfoContext(ctx, "Nothing matched and nothing supplemented, returning empty result",
			slog.String("city", parsed.City))
		return s.finish(ctx, req, &types.SearchResponse{
			Success:        true,
			Acknowledgment: rec.Acknowledgment,
			Places:         []types.PlaceResult{},
			Stage:          stageComplete,
		}), nil
	}

	summary := s.summarizer.Generate(ctx, allRows, parsed, language)

	// AI per-place summaries win for matched entries; the summarizer's
	// rebind summaries cover the rest.
	for i := range aiResults {
		if aiResults[i].Summary == "" {
			if id, err := uuid.Parse(aiResults[i].ID); err == nil {
				aiResults[i].Summary = summary.RowSummaries[id]
			}
		}
	}
	suppResults := make([]types.PlaceResult, 0, len(supplements))
	for _, row := range supplements {
		suppResults = append(suppResults, resultFromPlace(row, summary.RowSummaries[row.ID], sourceCache))
	}

	groups := buildGroups(summary.Groups, append(append([]types.PlaceResult{}, aiResults...), suppResults...))
	places, groups := assembleResults(aiResults, suppResults, groups, parsed.Count)

	ack := rec.Acknowledgment
	if len(groups) < 2 && ack == "" {
		ack = s.generateIntro(ctx, parsed, language, l)
	}

	s.backfiller.Backfill(ctx, places)

	resp := &types.SearchResponse{
		Success:        true,
		Acknowledgment: ack,
		Categories:     groups,
		Places:         places,
		OverallSummary: summary.Intro,
		Stage:          stageComplete,
	}
	return s.finish(ctx, req, resp), nil
}

// fetchRecommendations calls the AI provider under the recommendation
// deadline. Any failure is absorbed: the pipeline proceeds with zero
// candidates and relies on the supplementer.
func (s *SearchServiceImpl) fetchRecommendations(ctx context.Context, parsed types.ParsedQuery, language string, l *slog.Logger) recommendation {
	recCtx, cancel := context.WithTimeout(ctx, s.cfg.RecommendTimeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](s.temperature)}
	text, err := s.ai.GenerateContent(recCtx, GetRecommendationPrompt(parsed.OriginalQuery, language), cfg)
	if err != nil {
		if s.metrics != nil {
			s.metrics.AITimeoutsTotal.Add(ctx, 1)
		}
		l.WarnContext(ctx, "AI recommendation failed, proceeding without candidates", slog.Any("error", err))
		return recommendation{}
	}

	rec, err := parseRecommendation(text)
	if err != nil {
		if s.metrics != nil {
			s.metrics.AITimeoutsTotal.Add(ctx, 1)
		}
		l.WarnContext(ctx, "AI recommendation unparsable, proceeding without candidates", slog.Any("error", err))
		return recommendation{}
	}
	return rec
}

func parseRecommendation(text string) (recommendation, error) {
	jsonStr, err := extractJSONBlock(text)
	if err != nil {
		return recommendation{}, err
	}
	var rec recommendation
	if err := json.Unmarshal([]byte(jsonStr), &rec); err != nil {
		return recommendation{}, fmt.Errorf("failed to parse recommendation JSON: %w", err)
	}
	return rec, nil
}

// matchCandidates reconciles candidates against the catalog and builds the
// AI-sourced results in candidate order. Unmatched candidates are handed to
// the persist worker, off the request path.
func (s *SearchServiceImpl) matchCandidates(ctx context.Context, candidates []types.CandidatePlace) ([]types.Place, []types.PlaceResult) {
	if len(candidates) == 0 {
		return nil, nil
	}

	matched, unmatched := s.matcher.Match(ctx, candidates)
	for _, candidate := range unmatched {
		s.worker.Enqueue(candidate)
	}

	var rows []types.Place
	var results []types.PlaceResult
	for _, candidate := range candidates {
		row, ok := matched[candidate.Name]
		if !ok {
			continue
		}
		rows = append(rows, row)
		results = append(results, resultFromPlace(row, candidate.Summary, sourceAI))
	}
	return rows, results
}

func (s *SearchServiceImpl) fillShortfall(ctx context.Context, parsed types.ParsedQuery, matchedRows []types.Place, candidates []types.CandidatePlace) []types.Place {
	needed := parsed.Count - len(matchedRows)
	if needed <= 0 || parsed.City == "" {
		return nil
	}

	excludeIDs := make([]uuid.UUID, 0, len(matchedRows))
	excludeNames := make([]string, 0, len(matchedRows)+len(candidates))
	for _, row := range matchedRows {
		excludeIDs = append(excludeIDs, row.ID)
		excludeNames = append(excludeNames, row.Name)
	}
	for _, candidate := range candidates {
		excludeNames = append(excludeNames, candidate.Name)
	}

	return s.supplementer.Supplement(ctx, parsed.City, parsed.Category, excludeIDs, excludeNames, needed)
}

// generateIntro is the best-effort acknowledgment fallback: a short AI call
// under a tight deadline, silent no-op on failure.
func (s *SearchServiceImpl) generateIntro(ctx context.Context, parsed types.ParsedQuery, language string, l *slog.Logger) string {
	introCtx, cancel := context.WithTimeout(ctx, s.cfg.IntroTimeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](s.temperature)}
	text, err := s.ai.GenerateContent(introCtx, GetIntroPrompt(parsed.OriginalQuery, language), cfg)
	if err != nil {
		l.DebugContext(ctx, "Intro generation failed, leaving acknowledgment empty", slog.Any("error", err))
		return ""
	}
	if line, _, found := strings.Cut(strings.TrimSpace(text), "\n"); found {
		return line
	}
	return strings.TrimSpace(text)
}

// finish consumes quota and stamps the remaining allowance. Runs only on
// responses about to be returned successfully; rejected requests never reach
// here.
func (s *SearchServiceImpl) finish(ctx context.Context, req types.SearchRequest, resp *types.SearchResponse) *types.SearchResponse {
	if req.UserID == "" {
		resp.QuotaRemaining = s.dailyLimit
		return resp
	}

	if err := s.ledger.Consume(ctx, req.UserID); err != nil {
		s.logger.WarnContext(ctx, "Failed to consume quota", slog.Any("error", err))
	}
	remaining, err := s.ledger.Remaining(ctx, req.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read remaining quota", slog.Any("error", err))
		remaining = 0
	}
	resp.QuotaRemaining = remaining
	return resp
}

// buildGroups materializes the summarizer's row-id groups as CategoryGroups
// over the constructed results.
func buildGroups(groups []summaryGroup, results []types.PlaceResult) []types.CategoryGroup {
	byID := make(map[string]types.PlaceResult, len(results))
	for _, r := range results {
		byID[r.ID] = r
	}

	var out []types.CategoryGroup
	for _, g := range groups {
		cg := types.CategoryGroup{Title: g.Title}
		for _, id := range g.RowIDs {
			if r, ok := byID[id.String()]; ok {
				cg.Places = append(cg.Places, r)
			}
		}
		if len(cg.Places) >= 2 {
			out = append(out, cg)
		}
	}
	return out
}
