package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SearchRequestsTotal    metric.Int64Counter
	SearchDurationSeconds  metric.Float64Histogram
	AITimeoutsTotal        metric.Int64Counter
	QuotaRejectionsTotal   metric.Int64Counter
	ImageBackfillHitsTotal metric.Int64Counter
	PlacesPersistedTotal   metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments only once,
// using the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("PlaceDiscovery")
		var err error
		m := &AppMetrics{}

		m.SearchRequestsTotal, err = meter.Int64Counter(
			"discover_search_requests_total",
			metric.WithDescription("Total number of discover search requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create discover_search_requests_total: %v", err)
		}

		m.SearchDurationSeconds, err = meter.Float64Histogram(
			"discover_search_duration_seconds",
			metric.WithDescription("Duration of discover search requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create discover_search_duration_seconds: %v", err)
		}

		m.AITimeoutsTotal, err = meter.Int64Counter(
			"discover_ai_timeouts_total",
			metric.WithDescription("Total number of AI calls that timed out or failed"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create discover_ai_timeouts_total: %v", err)
		}

		m.QuotaRejectionsTotal, err = meter.Int64Counter(
			"discover_quota_rejections_total",
			metric.WithDescription("Total number of searches rejected for exhausted quota"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create discover_quota_rejections_total: %v", err)
		}

		m.ImageBackfillHitsTotal, err = meter.Int64Counter(
			"discover_image_backfill_hits_total",
			metric.WithDescription("Total number of cover images filled in by the image backfill step"),
			metric.WithUnit("{image}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create discover_image_backfill_hits_total: %v", err)
		}

		m.PlacesPersistedTotal, err = meter.Int64Counter(
			"discover_places_persisted_total",
			metric.WithDescription("Total number of AI-discovered places persisted by the background worker"),
			metric.WithUnit("{place}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create discover_places_persisted_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
