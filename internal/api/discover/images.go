package discover

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	appmetrics "github.com/FACorreiaa/go-place-discovery/app/observability/metrics"
	"github.com/FACorreiaa/go-place-discovery/internal/api/imagesearch"
	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

// ImageBackfiller fills missing cover images on assembled results,
// best-effort. A lookup that fails or times out leaves the entry without an
// image; the caller never sees an error.
type ImageBackfiller struct {
	client  imagesearch.Client
	limit   int
	timeout time.Duration
	logger  *slog.Logger
	metrics *appmetrics.AppMetrics
}

func NewImageBackfiller(client imagesearch.Client, limit int, timeout time.Duration, logger *slog.Logger, metrics *appmetrics.AppMetrics) *ImageBackfiller {
	return &ImageBackfiller{client: client, limit: limit, timeout: timeout, logger: logger, metrics: metrics}
}

// Backfill looks up images for up to limit entries lacking one, concurrently,
// and mutates the slice in place. Joins on all lookups before returning.
func (b *ImageBackfiller) Backfill(ctx context.Context, results []types.PlaceResult) {
	if b.client == nil {
		return
	}

	var targets []int
	for i := range results {
		if results[i].CoverImage == "" {
			targets = append(targets, i)
			if len(targets) >= b.limit {
				break
			}
		}
	}
	if len(targets) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, idx := range targets {
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(gctx, b.timeout)
			defer cancel()

			url, err := b.client.SearchPlaceImage(lookupCtx, results[idx].Name, results[idx].City)
			if err != nil {
				b.logger.DebugContext(ctx, "Image lookup failed, leaving entry without image",
					slog.String("place", results[idx].Name), slog.Any("error", err))
				return nil
			}
			if url != "" {
				results[idx].CoverImage = url
				if b.metrics != nil {
					b.metrics.ImageBackfillHitsTotal.Add(ctx, 1)
				}
			}
			return nil
		})
	}
	// Workers always return nil; Wait is just the join point.
	_ = g.Wait()
}
