package services

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
)

// Locker serialises work on a key across processes.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// NewLocker returns a Redis-backed locker, or one that never blocks when
// Redis is not configured. The database row lock still applies either way.
func NewLocker(client *redislock.Client) Locker {
	if client == nil {
		return noopLocker{}
	}
	return &redisLocker{client: client}
}

type redisLocker struct {
	client *redislock.Client
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.client.Obtain(ctx, key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 30),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, conflict(ErrConcurrentUpdate, "%s is locked", key)
	}
	if err != nil {
		return nil, storeErr("obtain lock", err)
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}

type noopLocker struct{}

func (noopLocker) Obtain(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
