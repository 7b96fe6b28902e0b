package coordination_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/blogvault/internal/coordination"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDistributedLock_AcquireAndRelease(t *testing.T) {
	client := newTestRedis(t)
	lock := coordination.NewDistributedLock(client, "worker-identity", coordination.DefaultLockConfig())

	require.NoError(t, lock.Lock(context.Background()))
	require.NoError(t, lock.Unlock(context.Background()))
}

func TestDistributedLock_SecondAcquireBlocksUntilReleased(t *testing.T) {
	client := newTestRedis(t)
	cfg := coordination.LockConfig{TTL: 2 * time.Second, RetryDelay: 10 * time.Millisecond, MaxRetries: 5}

	first := coordination.NewDistributedLock(client, "worker-identity", cfg)
	second := coordination.NewDistributedLock(client, "worker-identity", cfg)

	require.NoError(t, first.Lock(context.Background()))

	err := second.Lock(context.Background())
	assert.ErrorIs(t, err, coordination.ErrLockNotAcquired)

	require.NoError(t, first.Unlock(context.Background()))
	require.NoError(t, second.Lock(context.Background()))
}

func TestDistributedLock_UnlockNotHeldByAnotherToken(t *testing.T) {
	client := newTestRedis(t)
	cfg := coordination.DefaultLockConfig()

	owner := coordination.NewDistributedLock(client, "worker-identity", cfg)
	other := coordination.NewDistributedLock(client, "worker-identity", cfg)

	require.NoError(t, owner.Lock(context.Background()))

	err := other.Unlock(context.Background())
	assert.ErrorIs(t, err, coordination.ErrLockNotHeld)
}

func TestDistributedLock_Extend(t *testing.T) {
	client := newTestRedis(t)
	lock := coordination.NewDistributedLock(client, "worker-identity", coordination.DefaultLockConfig())

	require.NoError(t, lock.Lock(context.Background()))
	require.NoError(t, lock.Extend(context.Background(), time.Minute))
}

func TestNoopLock_AlwaysSucceeds(t *testing.T) {
	var lock coordination.Locker = coordination.NoopLock{}

	assert.NoError(t, lock.Lock(context.Background()))
	assert.NoError(t, lock.Extend(context.Background(), time.Minute))
	assert.NoError(t, lock.Unlock(context.Background()))
}
