package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cardcycle/cardcycle/internal/model"
)

const (
	rateLimitPrefix = "ratelimit:apikey:"
	rateLimitTTL    = 120 * time.Second
)

// RateLimitResult is the outcome of one token bucket check.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// tokenBucketScript refills and consumes in one atomic step.
// Returns {allowed, retry_after_seconds, remaining_tokens}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local data = redis.call('HMGET', key, 'tokens', 'last_update')
	local tokens = tonumber(data[1]) or burst
	local last_update = tonumber(data[2]) or now

	tokens = math.min(burst, tokens + ((now - last_update) * rate))

	local allowed = 0
	local retry_after = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_after = math.ceil((1 - tokens) / rate)
	end

	redis.call('HMSET', key, 'tokens', tokens, 'last_update', now)
	redis.call('EXPIRE', key, ttl)

	return {allowed, retry_after, math.floor(tokens)}
`)

// unlimited reports a check that never consults Redis.
func unlimited(limit model.RateLimitConfig, now time.Time) *RateLimitResult {
	return &RateLimitResult{
		Allowed:   true,
		Limit:     limit.RequestsPerMinute,
		Remaining: int64(limit.Burst),
		ResetAt:   now.Add(time.Minute),
	}
}

// CheckAPIRateLimit consumes one token from the bucket of apiKeyID.
// A zero RequestsPerMinute means the tier is unlimited.
func (c *Cache) CheckAPIRateLimit(ctx context.Context, apiKeyID string, limit model.RateLimitConfig) (*RateLimitResult, error) {
	now := time.Now()
	if limit.RequestsPerMinute <= 0 {
		return unlimited(limit, now), nil
	}

	rate := float64(limit.RequestsPerMinute) / 60.0
	res, err := tokenBucketScript.Run(ctx, c.client,
		[]string{rateLimitPrefix + apiKeyID},
		rate, limit.Burst, now.Unix(), int(rateLimitTTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("run token bucket: %w", err)
	}
	if len(res) != 3 {
		return nil, fmt.Errorf("token bucket returned %d values", len(res))
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		Limit:      limit.RequestsPerMinute,
		Remaining:  res[2],
		ResetAt:    now.Add(time.Duration(float64(time.Second) / rate)),
		RetryAfter: time.Duration(res[1]) * time.Second,
	}, nil
}
