package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hotelbooking/internal/cache"
)

const (
	hotelLockKeyPrefix = "lock:hotel:"
	defaultRetryDelay  = 25 * time.Millisecond
	releaseTimeout     = 2 * time.Second
)

// ErrNotAcquired is returned when the lease could not be taken before ctx was done.
var ErrNotAcquired = errors.New("hotel lock not acquired")

// Lease is the subset of cache.Client a RedisLocker needs.
type Lease interface {
	SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	DeleteIfEquals(ctx context.Context, key string, value string) error
}

var _ Lease = (*cache.Client)(nil)

// RedisLocker takes a SET NX PX lease per hotel so several instances share one lock.
// The lease expires after ttl even if the holder dies.
type RedisLocker struct {
	lease      Lease
	ttl        time.Duration
	retryDelay time.Duration
}

// NewRedisLocker creates a Redis backed hotel locker.
func NewRedisLocker(lease Lease, ttl time.Duration) *RedisLocker {
	return &RedisLocker{lease: lease, ttl: ttl, retryDelay: defaultRetryDelay}
}

// Lock polls for the lease until it is acquired or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, hotel string) (Unlock, error) {
	key := hotelLockKeyPrefix + hotel
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryDelay)
	defer ticker.Stop()

	for {
		ok, err := l.lease.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire hotel lock: %w", err)
		}
		if ok {
			return l.unlocker(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) unlocker(key, token string) Unlock {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		// the request context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		_ = l.lease.DeleteIfEquals(ctx, key, token)
	}
}
