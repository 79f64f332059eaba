package quota

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLedgerTest(t *testing.T, limit int) (*RedisLedger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewRedisLedger(client, limit, logger), mr
}

func TestRedisLedger_FreshUser(t *testing.T) {
	ledger, _ := setupLedgerTest(t, 10)
	ctx := context.Background()

	allowed, err := ledger.CanSearch(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, allowed)

	remaining, err := ledger.Remaining(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 10, remaining)
}

func TestRedisLedger_ConsumeToLimit(t *testing.T) {
	ledger, _ := setupLedgerTest(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, ledger.Consume(ctx, "user-1"))
	}

	remaining, err := ledger.Remaining(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	allowed, err := ledger.CanSearch(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Consuming past the limit surfaces the typed rejection.
	err = ledger.Consume(ctx, "user-1")
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestRedisLedger_UsersAreIndependent(t *testing.T) {
	ledger, _ := setupLedgerTest(t, 2)
	ctx := context.Background()

	require.NoError(t, ledger.Consume(ctx, "user-1"))
	require.NoError(t, ledger.Consume(ctx, "user-1"))

	allowed, err := ledger.CanSearch(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLedger_KeyExpiresAtUTCMidnight(t *testing.T) {
	ledger, mr := setupLedgerTest(t, 10)
	ctx := context.Background()

	fixed := time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC)
	ledger.now = func() time.Time { return fixed }
	mr.SetTime(fixed)

	require.NoError(t, ledger.Consume(ctx, "user-1"))

	key := "quota:user-1:2025-06-15"
	require.True(t, mr.Exists(key))
	assert.Greater(t, mr.TTL(key), time.Duration(0))
}

func TestRedisLedger_AllowanceResetsNextDay(t *testing.T) {
	ledger, mr := setupLedgerTest(t, 1)
	ctx := context.Background()

	day := time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC)
	ledger.now = func() time.Time { return day }
	mr.SetTime(day)

	require.NoError(t, ledger.Consume(ctx, "user-1"))
	allowed, err := ledger.CanSearch(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Next day keys a fresh counter even before the old one expires.
	ledger.now = func() time.Time { return day.Add(24 * time.Hour) }
	allowed, err = ledger.CanSearch(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRedisLedger_TransportErrorsSurface(t *testing.T) {
	ledger, mr := setupLedgerTest(t, 10)
	ctx := context.Background()
	mr.Close()

	_, err := ledger.CanSearch(ctx, "user-1")
	assert.Error(t, err)

	_, err = ledger.Remaining(ctx, "user-1")
	assert.Error(t, err)

	err = ledger.Consume(ctx, "user-1")
	assert.Error(t, err)
}
