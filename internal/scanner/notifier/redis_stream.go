package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"golang-signal-scryper/internal/scanner/dto"

	"github.com/redis/go-redis/v9"
)

// StreamAdder is the subset of the Redis client used to publish to a stream.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

type redisStreamDispatcher struct {
	client StreamAdder
	stream string
	maxLen int64
}

// NewRedisStreamDispatcher appends each notification to a capped Redis stream.
func NewRedisStreamDispatcher(client StreamAdder, stream string, maxLen int64) Channel {
	return &redisStreamDispatcher{client: client, stream: stream, maxLen: maxLen}
}

func (d *redisStreamDispatcher) Name() string { return "redis_stream" }

func (d *redisStreamDispatcher) Dispatch(ctx context.Context, n dto.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	return d.client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.stream,
		Values: map[string]interface{}{"payload": payload},
		MaxLen: d.maxLen,
		Approx: d.maxLen > 0,
	}).Err()
}
