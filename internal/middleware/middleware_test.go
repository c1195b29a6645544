package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cardcycle/cardcycle/internal/auth"
	"github.com/cardcycle/cardcycle/internal/cache"
	"github.com/cardcycle/cardcycle/internal/model"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func withIdentity(r *http.Request, scopes ...string) *http.Request {
	return r.WithContext(auth.WithAuthContext(r.Context(), &model.AuthContext{
		KeyID:         "key-1",
		UserID:        "user-1",
		Scopes:        scopes,
		RateLimitTier: model.TierFree,
	}))
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{"generated", "", false},
		{"client supplied", "abc-123", true},
		{"too long", strings.Repeat("x", 200), false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.incoming != "" {
			req.Header.Set(RequestIDHeader, tt.incoming)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
			t.Errorf("%s: context id %q, header %q", tt.name, seen, rec.Header().Get(RequestIDHeader))
		}
		if (seen == tt.incoming) != tt.reuse {
			t.Errorf("%s: id %q, reuse expected %v", tt.name, seen, tt.reuse)
		}
	}
}

func TestRecoverer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := Recoverer(slog.New(slog.NewJSONHandler(&buf, nil)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"INTERNAL_ERROR"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

func TestRequireScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		scopes   []string
		noAuth   bool
		required string
		want     int
	}{
		{"unauthenticated", nil, true, model.ScopeRead, http.StatusUnauthorized},
		{"has scope", []string{model.ScopeRead}, false, model.ScopeRead, http.StatusOK},
		{"missing scope", []string{model.ScopeRead}, false, model.ScopeWrite, http.StatusForbidden},
		{"admin implies write", []string{model.ScopeAdmin}, false, model.ScopeWrite, http.StatusOK},
		{"write is not admin", []string{model.ScopeWrite}, false, model.ScopeAdmin, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if !tt.noAuth {
				req = withIdentity(req, tt.scopes...)
			}
			rec := httptest.NewRecorder()
			RequireScope(tt.required)(okHandler).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSecurity_Headers(t *testing.T) {
	t.Parallel()

	for _, dev := range []bool{false, true} {
		rec := httptest.NewRecorder()
		Security(SecurityConfig{IsDevelopment: dev})(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
			t.Errorf("dev=%v: missing baseline headers: %v", dev, rec.Header())
		}
		if hsts := rec.Header().Get("Strict-Transport-Security"); (hsts != "") == dev {
			t.Errorf("dev=%v: HSTS = %q", dev, hsts)
		}
	}
}

func TestMaxBodySize(t *testing.T) {
	t.Parallel()

	readAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(r.Body); err != nil {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	h := MaxBodySize(8)(readAll)

	small := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("1234"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, small)
	if rec.Code != http.StatusOK {
		t.Errorf("small body status = %d", rec.Code)
	}

	declared := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 20)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, declared)
	if rec.Code != http.StatusRequestEntityTooLarge || !strings.Contains(rec.Body.String(), "PAYLOAD_TOO_LARGE") {
		t.Errorf("declared large body: status %d body %s", rec.Code, rec.Body.String())
	}

	streamed := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 20)))
	streamed.ContentLength = -1
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, streamed)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("streamed large body status = %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	h := CORS(SecurityConfig{AllowedOrigins: []string{"https://app.example.org", "*.cardcycle.dev"}})(okHandler)

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantAllow  bool
	}{
		{"no origin", http.MethodGet, "", http.StatusOK, false},
		{"exact", http.MethodGet, "https://app.example.org", http.StatusOK, true},
		{"exact case-insensitive", http.MethodGet, "https://APP.example.org", http.StatusOK, true},
		{"wildcard subdomain", http.MethodGet, "https://web.cardcycle.dev", http.StatusOK, true},
		{"wildcard apex rejected", http.MethodGet, "https://cardcycle.dev", http.StatusOK, false},
		{"lookalike rejected", http.MethodGet, "https://evilcardcycle.dev", http.StatusOK, false},
		{"disallowed preflight", http.MethodOptions, "https://evil.test", http.StatusForbidden, false},
		{"allowed preflight", http.MethodOptions, "https://app.example.org", http.StatusNoContent, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/api/v1/cards", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin") != ""; got != tt.wantAllow {
				t.Errorf("allow-origin present = %v, want %v", got, tt.wantAllow)
			}
		})
	}
}

type fakeLimiter struct {
	result *cache.RateLimitResult
	err    error
	calls  int
}

func (f *fakeLimiter) CheckAPIRateLimit(context.Context, string, model.RateLimitConfig) (*cache.RateLimitResult, error) {
	f.calls++
	return f.result, f.err
}

func TestRateLimitAPI(t *testing.T) {
	t.Parallel()

	reset := time.Now().Add(time.Second)
	tests := []struct {
		name       string
		enabled    bool
		tier       string
		limiter    *fakeLimiter
		wantStatus int
		wantCalls  int
	}{
		{"disabled", false, model.TierFree, &fakeLimiter{}, http.StatusOK, 0},
		{"unlimited tier", true, model.TierUnlimited, &fakeLimiter{}, http.StatusOK, 0},
		{"allowed", true, model.TierFree, &fakeLimiter{result: &cache.RateLimitResult{Allowed: true, Limit: 60, Remaining: 5, ResetAt: reset}}, http.StatusOK, 1},
		{"denied", true, model.TierPro, &fakeLimiter{result: &cache.RateLimitResult{Limit: 600, ResetAt: reset, RetryAfter: 3 * time.Second}}, http.StatusTooManyRequests, 1},
		{"limiter error fails open", true, model.TierFree, &fakeLimiter{err: errors.New("redis down")}, http.StatusOK, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := RateLimitAPI(RateLimitConfig{Logger: discardLogger(), Limiter: tt.limiter, Enabled: tt.enabled})(okHandler)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(auth.WithAuthContext(req.Context(), &model.AuthContext{KeyID: "k", UserID: "u", RateLimitTier: tt.tier}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.limiter.calls != tt.wantCalls {
				t.Errorf("limiter calls = %d, want %d", tt.limiter.calls, tt.wantCalls)
			}
			if tt.wantStatus == http.StatusTooManyRequests {
				if rec.Header().Get("Retry-After") != "3" {
					t.Errorf("Retry-After = %q, want 3", rec.Header().Get("Retry-After"))
				}
				if !strings.Contains(rec.Body.String(), "RATE_LIMITED") {
					t.Errorf("body = %s", rec.Body.String())
				}
			}
		})
	}
}
