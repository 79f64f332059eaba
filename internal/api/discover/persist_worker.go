package discover

import (
	"context"
	"log/slog"
	"time"

	appmetrics "github.com/FACorreiaa/go-place-discovery/app/observability/metrics"
	"github.com/FACorreiaa/go-place-discovery/internal/api/place"
	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

const persistQueueSize = 256

// PersistWorker saves AI-discovered places that matched nothing in the
// catalog. It runs off the request path: candidates are handed to a queue and
// a single consumer owns deduplication-at-write-time and error swallowing.
// Concurrent identical writes may race; the bounding-box existence re-check
// keeps duplicates rare, not impossible.
type PersistWorker struct {
	repo    place.Repository
	delta   float64
	logger  *slog.Logger
	metrics *appmetrics.AppMetrics

	queue chan types.CandidatePlace
	done  chan struct{}
}

func NewPersistWorker(repo place.Repository, proximityDelta float64, logger *slog.Logger, metrics *appmetrics.AppMetrics) *PersistWorker {
	return &PersistWorker{
		repo:    repo,
		delta:   proximityDelta,
		logger:  logger,
		metrics: metrics,
		queue:   make(chan types.CandidatePlace, persistQueueSize),
		done:    make(chan struct{}),
	}
}

// Start launches the consumer goroutine.
func (w *PersistWorker) Start() {
	go func() {
		defer close(w.done)
		for candidate := range w.queue {
			w.persist(candidate)
		}
	}()
}

// Enqueue hands a candidate to the worker without blocking. When the queue is
// full the candidate is dropped; persistence is best-effort.
func (w *PersistWorker) Enqueue(candidate types.CandidatePlace) {
	select {
	case w.queue <- candidate:
	default:
		w.logger.Warn("Persist queue full, dropping candidate", slog.String("name", candidate.Name))
	}
}

// Stop closes the queue and waits for the consumer to drain it.
func (w *PersistWorker) Stop() {
	close(w.queue)
	<-w.done
}

func (w *PersistWorker) persist(candidate types.CandidatePlace) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if candidate.Name == "" {
		return
	}

	exists, err := w.repo.ExistsNear(ctx, candidate.Name, candidate.Latitude, candidate.Longitude, w.delta)
	if err != nil {
		w.logger.WarnContext(ctx, "Existence check failed, skipping candidate",
			slog.String("name", candidate.Name), slog.Any("error", err))
		return
	}
	if exists {
		return
	}

	id, err := w.repo.Create(ctx, candidate)
	if err != nil {
		w.logger.WarnContext(ctx, "Failed to persist AI-discovered place",
			slog.String("name", candidate.Name), slog.Any("error", err))
		return
	}

	if w.metrics != nil {
		w.metrics.PlacesPersistedTotal.Add(ctx, 1)
	}
	w.logger.DebugContext(ctx, "Persisted AI-discovered place",
		slog.String("name", candidate.Name), slog.String("id", id.String()))
}
