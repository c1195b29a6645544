package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cardcycle/cardcycle/internal/model"
)

const (
	authCachePrefix = "auth:ctx:"
	authIndexPrefix = "auth:key:"
	authCacheTTL    = 5 * time.Minute
)

// cachedAuth is the JSON form of model.AuthContext stored in Redis.
type cachedAuth struct {
	KeyID         string   `json:"key_id"`
	KeyPrefix     string   `json:"key_prefix"`
	UserID        string   `json:"user_id"`
	Scopes        []string `json:"scopes"`
	RateLimitTier string   `json:"rate_limit_tier"`
}

func authKey(cacheKey string) string  { return authCachePrefix + cacheKey }
func indexKey(apiKeyID string) string { return authIndexPrefix + apiKeyID }

// GetAuthContext returns the identity cached under cacheKey. A miss or a
// corrupted entry returns nil without error.
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	data, err := c.client.Get(ctx, authKey(cacheKey)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get auth context: %w", err)
	}

	var cached cachedAuth
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr // treated as a miss
	}

	return &model.AuthContext{
		KeyID:         cached.KeyID,
		KeyPrefix:     cached.KeyPrefix,
		UserID:        cached.UserID,
		Scopes:        cached.Scopes,
		RateLimitTier: cached.RateLimitTier,
	}, nil
}

// SetAuthContext caches a after a successful verification. The entry is also
// indexed by API key id so revocation can drop it.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, a *model.AuthContext) error {
	data, err := json.Marshal(cachedAuth{
		KeyID:         a.KeyID,
		KeyPrefix:     a.KeyPrefix,
		UserID:        a.UserID,
		Scopes:        a.Scopes,
		RateLimitTier: a.RateLimitTier,
	})
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, authKey(cacheKey), data, authCacheTTL)
		pipe.Set(ctx, indexKey(a.KeyID), cacheKey, authCacheTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set auth context: %w", err)
	}
	return nil
}

// InvalidateAPIKey drops the cached identity of a revoked or rotated key.
func (c *Cache) InvalidateAPIKey(ctx context.Context, apiKeyID string) error {
	cacheKey, err := c.client.Get(ctx, indexKey(apiKeyID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup auth index: %w", err)
	}

	if err := c.client.Del(ctx, authKey(cacheKey), indexKey(apiKeyID)).Err(); err != nil {
		return fmt.Errorf("invalidate auth context: %w", err)
	}
	return nil
}
