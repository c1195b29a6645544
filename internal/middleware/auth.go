package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cardcycle/cardcycle/internal/auth"
	"github.com/cardcycle/cardcycle/internal/model"
)

// minAuthDuration pads every authentication attempt so failures and cache
// hits are indistinguishable by timing.
const minAuthDuration = 200 * time.Millisecond

// KeyStore finds API key candidates by their visible prefix.
// repository.Repository implements it.
type KeyStore interface {
	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
}

// AuthCache caches verified identities. cache.Cache implements it.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, a *model.AuthContext) error
}

// AuthConfig holds the collaborators of Auth.
type AuthConfig struct {
	Logger *slog.Logger
	Keys   KeyStore
	Cache  AuthCache
	// MinDuration overrides minAuthDuration when positive.
	MinDuration time.Duration
}

// Auth authenticates requests by API key and stores the resulting identity
// in the request context. Every failure returns the same 401 response.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	pad := minAuthDuration
	if cfg.MinDuration > 0 {
		pad = cfg.MinDuration
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			a, reason := authenticate(r, cfg)
			if elapsed := time.Since(start); elapsed < pad {
				time.Sleep(pad - elapsed)
			}

			if a == nil {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing API key")
				return
			}

			r = r.WithContext(auth.WithAuthContext(r.Context(), a))
			recordOwner(r)
			next.ServeHTTP(w, r)
		})
	}
}

// authenticate resolves the request's key to an identity. On failure it
// returns a reason for the log.
func authenticate(r *http.Request, cfg AuthConfig) (*model.AuthContext, string) {
	ctx := r.Context()

	key := extractAPIKey(r)
	if key == "" {
		return nil, "missing_key"
	}
	parsed, err := auth.Parse(key)
	if err != nil {
		return nil, "invalid_format"
	}

	cacheKey := auth.CacheKey(key)
	if cfg.Cache != nil {
		cached, err := cfg.Cache.GetAuthContext(ctx, cacheKey)
		if err != nil {
			cfg.Logger.Warn("auth cache read failed", slog.String("error", err.Error()))
		}
		if cached != nil {
			return cached, ""
		}
	}

	candidates, err := cfg.Keys.GetAPIKeysByPrefix(ctx, parsed.Prefix)
	if err != nil {
		cfg.Logger.Error("api key lookup failed",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(ctx)),
		)
		return nil, "lookup_error"
	}

	var matched *model.APIKey
	for _, k := range candidates {
		if ok, err := auth.Verify(key, k.KeyHash); err == nil && ok {
			matched = k
			break
		}
	}
	if matched == nil {
		return nil, "invalid_key"
	}

	a := &model.AuthContext{
		KeyID:         matched.ID,
		KeyPrefix:     matched.KeyPrefix,
		UserID:        matched.UserID,
		Scopes:        matched.Scopes,
		RateLimitTier: matched.RateLimitTier,
	}

	if cfg.Cache != nil {
		if err := cfg.Cache.SetAuthContext(ctx, cacheKey, a); err != nil {
			cfg.Logger.Warn("auth cache write failed", slog.String("error", err.Error()))
		}
	}

	// Detached from the request so it survives the response.
	go func(id string) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = cfg.Keys.UpdateAPIKeyLastUsed(ctx, id)
	}(matched.ID)

	return a, ""
}

// extractAPIKey reads "Authorization: Bearer <key>" or "X-API-Key: <key>".
func extractAPIKey(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
