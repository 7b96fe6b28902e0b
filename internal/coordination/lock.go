// Package coordination provides an optional distributed lock, backed
// by Redis, that keeps two worker processes from claiming the same
// worker identity when several Supervisor instances run against a
// shared coordinator.
package coordination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultLockTTL is the default lock time-to-live.
	DefaultLockTTL = 30 * time.Second

	// DefaultRetryDelay is the default delay between lock acquisition retries.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetries is the default maximum number of lock acquisition attempts.
	DefaultMaxRetries = 10
)

// ErrLockNotAcquired is returned when a lock cannot be acquired within
// the configured retries.
var ErrLockNotAcquired = errors.New("worker identity lock not acquired")

// ErrLockNotHeld is returned when trying to release or extend a lock
// that is not currently held by this instance.
var ErrLockNotHeld = errors.New("worker identity lock not held")

// Locker is satisfied by both DistributedLock and NoopLock so
// Supervisor can treat "Redis configured" and "Redis not configured"
// uniformly.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	Extend(ctx context.Context, extension time.Duration) error
}

// DistributedLock is a Redis SETNX-based mutual-exclusion lock scoped
// to one key, identified by a random per-instance token so only the
// instance that acquired it can release or extend it.
type DistributedLock struct {
	client     *redis.Client
	key        string
	token      string
	ttl        time.Duration
	retryDelay time.Duration
	maxRetries int
}

// LockConfig holds construction parameters for a DistributedLock.
type LockConfig struct {
	TTL        time.Duration
	RetryDelay time.Duration
	MaxRetries int
}

// DefaultLockConfig returns a LockConfig with sensible defaults.
func DefaultLockConfig() LockConfig {
	return LockConfig{
		TTL:        DefaultLockTTL,
		RetryDelay: DefaultRetryDelay,
		MaxRetries: DefaultMaxRetries,
	}
}

// NewDistributedLock builds a lock over key using client.
func NewDistributedLock(client *redis.Client, key string, cfg LockConfig) *DistributedLock {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultLockTTL
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	return &DistributedLock{
		client:     client,
		key:        key,
		token:      uuid.New().String(),
		ttl:        cfg.TTL,
		retryDelay: cfg.RetryDelay,
		maxRetries: cfg.MaxRetries,
	}
}

// Lock blocks (making at most maxRetries attempts in total) until the
// lock is acquired, ctx is cancelled, or the attempts are exhausted.
func (l *DistributedLock) Lock(ctx context.Context) error {
	for attempt := 0; attempt < l.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		acquired, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}

		if attempt < l.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(l.retryDelay):
			}
		}
	}
	return ErrLockNotAcquired
}

// TryLock attempts to acquire the lock once, without retrying.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %q: %w", l.key, err)
	}
	return ok, nil
}

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Unlock releases the lock, if this instance still holds it.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	result, err := unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("release lock %q: %w", l.key, err)
	}
	if result == 0 {
		return ErrLockNotHeld
	}
	return nil
}

var extendScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`)

// Extend pushes the lock's TTL out by extension, if this instance
// still holds it.
func (l *DistributedLock) Extend(ctx context.Context, extension time.Duration) error {
	result, err := extendScript.Run(ctx, l.client, []string{l.key}, l.token, extension.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("extend lock %q: %w", l.key, err)
	}
	if result == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// NoopLock satisfies Locker without touching Redis, used when no
// Redis address is configured (single-process deployments).
type NoopLock struct{}

func (NoopLock) Lock(context.Context) error                  { return nil }
func (NoopLock) Unlock(context.Context) error                { return nil }
func (NoopLock) Extend(context.Context, time.Duration) error { return nil }
