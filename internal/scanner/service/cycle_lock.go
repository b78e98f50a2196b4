package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CycleLock serializes scan cycles across processes.
type CycleLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// redisCycleLock is only used behind the in-process cycle guard, so one token
// per process is enough.
type redisCycleLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

// NewRedisCycleLock creates a SETNX-based lock with the given TTL. The TTL bounds
// how long a crashed holder can block later cycles.
func NewRedisCycleLock(client *redis.Client, key string, ttl time.Duration) CycleLock {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &redisCycleLock{client: client, key: key, ttl: ttl}
}

func (l *redisCycleLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

func (l *redisCycleLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
	l.token = ""
	if err == redis.Nil {
		return nil
	}
	return err
}

// noopCycleLock always succeeds. Used for single-process deployments.
type noopCycleLock struct{}

// NewNoopCycleLock returns a CycleLock that never blocks.
func NewNoopCycleLock() CycleLock { return noopCycleLock{} }

func (noopCycleLock) Acquire(context.Context) (bool, error) { return true, nil }
func (noopCycleLock) Release(context.Context) error         { return nil }
