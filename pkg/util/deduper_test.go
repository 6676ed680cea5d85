package util

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testDeduper(t *testing.T) *Deduper {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewDeduper(rdb, time.Minute)
}

func TestAcquireOnceBlocksDuplicates(t *testing.T) {
	d := testDeduper(t)
	ctx := context.Background()

	require.True(t, d.AcquireOnce(ctx, "notification_failed", "42:EMAIL"))
	// A redelivered event with the same key must be dropped.
	require.False(t, d.AcquireOnce(ctx, "notification_failed", "42:EMAIL"))
}

func TestAcquireOnceKeysAreIndependent(t *testing.T) {
	d := testDeduper(t)
	ctx := context.Background()

	require.True(t, d.AcquireOnce(ctx, "reminder", "7:2026-03-10"))
	require.True(t, d.AcquireOnce(ctx, "reminder", "7:2026-03-11"))
	require.True(t, d.AcquireOnce(ctx, "agent_failed", "7:2026-03-10"))
}

func TestReleaseReopensTheLock(t *testing.T) {
	d := testDeduper(t)
	ctx := context.Background()

	require.True(t, d.AcquireOnce(ctx, "reminder", "7:2026-03-10"))

	// Transient failure after acquiring: the lock is released so the next
	// scan can retry the same habit within the TTL.
	d.Release(ctx, "reminder", "7:2026-03-10")
	require.True(t, d.AcquireOnce(ctx, "reminder", "7:2026-03-10"))
}

func TestAcquireOnceFailsOpenWhenRedisIsDown(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	d := NewDeduper(rdb, time.Minute)

	srv.Close()
	require.True(t, d.AcquireOnce(context.Background(), "reminder", "7:2026-03-10"))
}
