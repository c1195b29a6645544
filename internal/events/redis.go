package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	// StreamKey is the Redis stream for credit expense events.
	StreamKey = "stream:credit_expense_events"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000
)

// RedisStreamPublisher appends events to a Redis stream.
type RedisStreamPublisher struct {
	redis  *redis.Client
	stream string
}

// NewRedisStreamPublisher creates a publisher writing to StreamKey.
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{redis: client, stream: StreamKey}
}

// Publish adds the event to the stream.
func (p *RedisStreamPublisher) Publish(ctx context.Context, event Event) error {
	data, err := event.Marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	err = p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]any{
			"type":    string(event.Type),
			"payload": string(data),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}

	return nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (p *RedisStreamPublisher) Close() error {
	return nil
}
