package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cardcycle/cardcycle/internal/auth"
	"github.com/cardcycle/cardcycle/internal/cache"
	"github.com/cardcycle/cardcycle/internal/model"
)

// Limiter consumes rate limit tokens. cache.Cache implements it.
type Limiter interface {
	CheckAPIRateLimit(ctx context.Context, apiKeyID string, limit model.RateLimitConfig) (*cache.RateLimitResult, error)
}

// RateLimitConfig configures RateLimitAPI.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter Limiter
	Enabled bool
}

// RateLimitAPI limits each API key to its tier's token bucket. Limiter errors
// let the request through. Must run after Auth.
func RateLimitAPI(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a := auth.FromContext(r.Context())
			if !cfg.Enabled || a == nil {
				next.ServeHTTP(w, r)
				return
			}

			limit := model.TierLimit(a.RateLimitTier)
			if limit.RequestsPerMinute == 0 {
				next.ServeHTTP(w, r)
				return
			}

			res, err := cfg.Limiter.CheckAPIRateLimit(r.Context(), a.KeyID, limit)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("key_id", a.KeyID),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retry := int(res.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("key_id", a.KeyID),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int("retry_after_seconds", retry),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				h.Set("Retry-After", strconv.Itoa(retry))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED",
					"Rate limit exceeded. Retry after "+strconv.Itoa(retry)+" seconds.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
