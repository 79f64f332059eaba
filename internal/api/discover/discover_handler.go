package discover

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/go-place-discovery/app/middleware"
	appmetrics "github.com/FACorreiaa/go-place-discovery/app/observability/metrics"
	"github.com/FACorreiaa/go-place-discovery/internal/api"
	"github.com/FACorreiaa/go-place-discovery/internal/api/quota"
	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

type SearchHandler struct {
	searchService SearchService
	metrics       *appmetrics.AppMetrics
	logger        *slog.Logger
}

func NewSearchHandler(searchService SearchService, metrics *appmetrics.AppMetrics, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		metrics:       metrics,
		logger:        logger,
	}
}

// Search handles POST /api/v1/discover/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DiscoverSearch").Start(r.Context(), "SearchHandler", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/discover/search"),
	))
	defer span.End()

	start := time.Now()
	l := h.logger.With(slog.String("handler", "Search"))

	var req types.SearchRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.ErrorContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// Input errors are rejected synchronously, before any work.
	if strings.TrimSpace(req.Query) == "" {
		l.ErrorContext(ctx, "Empty query rejected")
		api.ErrorResponse(w, r, http.StatusBadRequest, "query is required")
		return
	}

	// An authenticated identity takes precedence over the body's userId.
	if userID, ok := appMiddleware.GetUserIDFromContext(ctx); ok && userID != "" {
		req.UserID = userID
	}
	if req.UserID != "" {
		span.SetAttributes(semconv.EnduserIDKey.String(req.UserID))
	}

	resp, err := h.searchService.Search(ctx, req)
	if h.metrics != nil {
		h.metrics.SearchRequestsTotal.Add(ctx, 1)
		h.metrics.SearchDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}

	if err != nil {
		if errors.Is(err, quota.ErrQuotaExceeded) {
			l.InfoContext(ctx, "Search rejected: quota exceeded", slog.String("userID", req.UserID))
			api.WriteJSONResponse(w, r, http.StatusTooManyRequests, resp)
			return
		}
		l.ErrorContext(ctx, "Search failed", slog.Any("error", err))
		api.WriteJSONResponse(w, r, http.StatusInternalServerError, &types.SearchResponse{
			Success: false,
			Places:  []types.PlaceResult{},
			Stage:   stageComplete,
			Error:   "internal error",
		})
		return
	}

	span.SetAttributes(attribute.Int("places.count", len(resp.Places)))
	l.InfoContext(ctx, "Search completed",
		slog.Int("places", len(resp.Places)),
		slog.Int("categories", len(resp.Categories)),
		slog.Duration("latency", time.Since(start)))
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}
