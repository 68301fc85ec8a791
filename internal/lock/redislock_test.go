package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/foodpick-ng/backend/internal/lock"
)

func newClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestWithLockRuns(t *testing.T) {
	t.Parallel()

	client := newClient(t)
	locker := lock.Locker{R: client}

	ran := false
	err := locker.WithLock(context.Background(), lock.CollectionKey("fp:orders"), time.Second, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)

	// released: a second acquisition must not block
	err = locker.WithLock(context.Background(), lock.CollectionKey("fp:orders"), time.Second, func(context.Context) error { return nil })
	require.NoError(t, err)
}

func TestWithLockContendedRespectsContext(t *testing.T) {
	t.Parallel()

	client := newClient(t)
	locker := lock.Locker{R: client, RetryBackoff: 10 * time.Millisecond}
	key := lock.CollectionKey("fp:cart:abc")

	require.NoError(t, client.SetNX(context.Background(), key, "held-elsewhere", time.Minute).Err())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := locker.WithLock(ctx, key, time.Second, func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
