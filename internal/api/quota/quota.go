package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrQuotaExceeded is the typed signal for an exhausted daily allowance,
// distinct from transport errors.
var ErrQuotaExceeded = errors.New("daily search quota exceeded")

// Ensure implementation satisfies the interface
var _ Ledger = (*RedisLedger)(nil)

// Ledger tracks the per-user daily search allowance. It owns the
// read-then-write discipline internally; callers treat it as atomic.
type Ledger interface {
	CanSearch(ctx context.Context, userID string) (bool, error)
	Remaining(ctx context.Context, userID string) (int, error)
	Consume(ctx context.Context, userID string) error
}

// RedisLedger keys usage as quota:{userID}:{yyyy-mm-dd}; keys expire at the
// next UTC midnight so the allowance resets daily without a sweeper.
type RedisLedger struct {
	client *redis.Client
	limit  int
	logger *slog.Logger
	now    func() time.Time
}

func NewRedisLedger(client *redis.Client, dailyLimit int, logger *slog.Logger) *RedisLedger {
	return &RedisLedger{
		client: client,
		limit:  dailyLimit,
		logger: logger,
		now:    time.Now,
	}
}

func (l *RedisLedger) key(userID string) string {
	return fmt.Sprintf("quota:%s:%s", userID, l.now().UTC().Format("2006-01-02"))
}

func (l *RedisLedger) used(ctx context.Context, userID string) (int, error) {
	used, err := l.client.Get(ctx, l.key(userID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read quota counter: %w", err)
	}
	return used, nil
}

// CanSearch reports whether the user still has allowance left today.
func (l *RedisLedger) CanSearch(ctx context.Context, userID string) (bool, error) {
	ctx, span := otel.Tracer("QuotaLedger").Start(ctx, "CanSearch")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	used, err := l.used(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quota read failed")
		return false, err
	}
	return used < l.limit, nil
}

// Remaining returns how many searches the user has left today.
func (l *RedisLedger) Remaining(ctx context.Context, userID string) (int, error) {
	used, err := l.used(ctx, userID)
	if err != nil {
		return 0, err
	}
	remaining := l.limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Consume records one successful search. Returns ErrQuotaExceeded when the
// allowance is already spent.
func (l *RedisLedger) Consume(ctx context.Context, userID string) error {
	ctx, span := otel.Tracer("QuotaLedger").Start(ctx, "Consume")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	key := l.key(userID)
	used, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quota increment failed")
		return fmt.Errorf("failed to increment quota counter: %w", err)
	}
	if used == 1 {
		// First search of the day: expire the counter at next UTC midnight.
		midnight := l.now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
		if err := l.client.ExpireAt(ctx, key, midnight).Err(); err != nil {
			l.logger.WarnContext(ctx, "Failed to set quota key expiry",
				slog.String("key", key), slog.Any("error", err))
		}
	}
	if int(used) > l.limit {
		span.SetStatus(codes.Error, "quota exceeded")
		return ErrQuotaExceeded
	}
	return nil
}
