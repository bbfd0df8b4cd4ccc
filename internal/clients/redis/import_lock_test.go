package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
)

func exerciseLock(t *testing.T, lock ImportLock) {
	t.Helper()
	ctx := context.Background()
	key := "fw-" + uuid.NewString()

	lease, err := lock.Acquire(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := lock.Acquire(ctx, key, time.Minute); !errors.Is(err, pkgerrors.ErrImportInProgress) {
		t.Fatalf("Acquire(held): expected ErrImportInProgress, got %v", err)
	}
	other, err := lock.Acquire(ctx, key+"-other", time.Minute)
	if err != nil {
		t.Fatalf("Acquire(other key): %v", err)
	}
	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release: %v", err)
	}
	again, err := lock.Acquire(ctx, key, time.Minute)
	if err != nil {
		t.Fatalf("Acquire(after release): %v", err)
	}
	_ = again.Release(ctx)
	_ = other.Release(ctx)

	if _, err := lock.Acquire(ctx, " ", time.Minute); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("Acquire(empty key): got %v", err)
	}
}

func TestLocalImportLock(t *testing.T) {
	exerciseLock(t, NewLocalImportLock())
}

func TestLocalImportLockExpires(t *testing.T) {
	lock := NewLocalImportLock()
	ctx := context.Background()

	stale, err := lock.Acquire(ctx, "k", time.Nanosecond)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	time.Sleep(time.Millisecond)
	fresh, err := lock.Acquire(ctx, "k", time.Minute)
	if err != nil {
		t.Fatalf("Acquire(after expiry): %v", err)
	}
	// Releasing the stale lease must not drop the fresh holder.
	_ = stale.Release(ctx)
	if _, err := lock.Acquire(ctx, "k", time.Minute); !errors.Is(err, pkgerrors.ErrImportInProgress) {
		t.Fatalf("stale release freed the key: %v", err)
	}
	_ = fresh.Release(ctx)
}

func TestRedisImportLock(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	exerciseLock(t, NewImportLockWithClient(rdb, "test:frameworks:import:", nil))
}
