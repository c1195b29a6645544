package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cardcycle/cardcycle/internal/auth"
	"github.com/cardcycle/cardcycle/internal/billing"
	"github.com/cardcycle/cardcycle/internal/events"
	"github.com/cardcycle/cardcycle/internal/handler"
	"github.com/cardcycle/cardcycle/internal/memstore"
	"github.com/cardcycle/cardcycle/internal/metrics"
	"github.com/cardcycle/cardcycle/internal/middleware"
	"github.com/cardcycle/cardcycle/internal/model"
	"github.com/cardcycle/cardcycle/internal/repository"
	"github.com/cardcycle/cardcycle/internal/service"
)

type keyStore struct {
	mu   sync.Mutex
	keys map[string]*model.APIKey
}

func (s *keyStore) GetAPIKeysByPrefix(_ context.Context, prefix string) ([]*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.APIKey
	for _, k := range s.keys {
		if k.KeyPrefix == prefix && !k.IsRevoked() {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *keyStore) UpdateAPIKeyLastUsed(context.Context, string) error { return nil }

func (s *keyStore) CreateAPIKey(_ context.Context, key *model.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key.ID] = key
	return nil
}

func (s *keyStore) GetAPIKeyByID(_ context.Context, id string) (*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.keys[id]; ok {
		return k, nil
	}
	return nil, repository.ErrAPIKeyNotFound
}

func (s *keyStore) ListAPIKeysByUserID(_ context.Context, userID string) ([]*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.APIKey
	for _, k := range s.keys {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *keyStore) RevokeAPIKey(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[id]
	if !ok || k.UserID != userID {
		return repository.ErrAPIKeyNotFound
	}
	now := time.Now()
	k.RevokedAt = &now
	return nil
}

func (s *keyStore) issue(t *testing.T, userID string, scopes ...string) string {
	t.Helper()

	key, err := auth.NewKey(auth.EnvTest)
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	_ = s.CreateAPIKey(context.Background(), &model.APIKey{
		ID:            "key-" + key.Prefix,
		UserID:        userID,
		KeyHash:       key.Hash,
		KeyPrefix:     key.Prefix,
		Scopes:        scopes,
		RateLimitTier: model.TierFree,
		CreatedAt:     time.Now(),
	})
	return key.Plaintext
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T) (http.Handler, *keyStore) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()
	recorder := metrics.NewInMemory()
	keys := &keyStore{keys: make(map[string]*model.APIKey)}

	deps := routerDeps{
		health:     handler.NewHealthHandler(pinger{}, pinger{err: errors.New("down")}),
		metrics:    handler.NewMetricsHandler(recorder),
		categories: handler.NewCategoryHandler(service.NewCategoryService(store, recorder), logger),
		cards:      handler.NewCardHandler(service.NewCardService(store, recorder), logger),
		expenses:   handler.NewExpenseHandler(service.NewExpenseService(store, recorder), logger),
		credit: handler.NewCreditExpenseHandler(
			service.NewCreditExpenseService(store, billing.NewCalculator(billing.Clamp), events.Discard, recorder), logger),
		apiKeys:   handler.NewAPIKeyHandler(logger, keys, nil, auth.EnvTest),
		auth:      middleware.AuthConfig{Logger: logger, Keys: keys, MinDuration: time.Millisecond},
		rateLimit: middleware.RateLimitConfig{Logger: logger},
		security:  middleware.SecurityConfig{IsDevelopment: true, MaxRequestBodySize: 1 << 10},
	}
	return setupRouter(deps, logger), keys
}

func call(h http.Handler, method, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Probes(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := call(r, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("/healthz = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	if rec := call(r, http.MethodGet, "/readyz", "", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/readyz with redis down = %d, want 503", rec.Code)
	}
	if rec := call(r, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Errorf("/metrics = %d", rec.Code)
	}
	if rec := call(r, http.MethodGet, "/unknown", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("/unknown = %d", rec.Code)
	}
}

func TestRouter_AuthAndScopes(t *testing.T) {
	r, keys := newTestRouter(t)
	reader := keys.issue(t, "alice", model.ScopeRead)
	writer := keys.issue(t, "alice", model.ScopeRead, model.ScopeWrite)

	if rec := call(r, http.MethodGet, "/api/v1/categories", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key = %d, want 401", rec.Code)
	}
	if rec := call(r, http.MethodGet, "/api/v1/categories", "pk_test_abcdef_"+strings.Repeat("0", 32), ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown key = %d, want 401", rec.Code)
	}
	if rec := call(r, http.MethodGet, "/api/v1/categories", reader, ""); rec.Code != http.StatusOK {
		t.Errorf("read list = %d, want 200", rec.Code)
	}
	if rec := call(r, http.MethodPost, "/api/v1/categories", reader, `{"name":"food"}`); rec.Code != http.StatusForbidden {
		t.Errorf("read key create = %d, want 403", rec.Code)
	}
	if rec := call(r, http.MethodPost, "/api/v1/categories", writer, `{"name":"food"}`); rec.Code != http.StatusCreated {
		t.Errorf("write key create = %d, want 201; body %s", rec.Code, rec.Body.String())
	}
	if rec := call(r, http.MethodPost, "/api/v1/api-keys", writer, `{}`); rec.Code != http.StatusForbidden {
		t.Errorf("non-admin key create = %d, want 403", rec.Code)
	}
}

func TestRouter_CreditExpenseFlow(t *testing.T) {
	r, keys := newTestRouter(t)
	key := keys.issue(t, "alice", model.ScopeAdmin)

	if rec := call(r, http.MethodPost, "/api/v1/cards", key, `{"name":"visa","cut_off_day":28,"payment_due_day":12}`); rec.Code != http.StatusCreated {
		t.Fatalf("create card = %d: %s", rec.Code, rec.Body.String())
	}

	rec := call(r, http.MethodPost, "/api/v1/credit-expenses", key,
		`{"amount":"100.50","effective_date":"2023-11-01","category":{"name":"food"},"card":{"name":"visa"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create credit expense = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`"cut_off_date":"2023-11-28"`, `"payment_date":"2023-12-12"`, `"amount":"100.50"`} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %s: %s", want, body)
		}
	}
}

func TestRouter_BodyLimit(t *testing.T) {
	r, keys := newTestRouter(t)
	key := keys.issue(t, "alice", model.ScopeAdmin)

	big := `{"name":"` + strings.Repeat("x", 2<<10) + `"}`
	if rec := call(r, http.MethodPost, "/api/v1/categories", key, big); rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body = %d, want 413", rec.Code)
	}
}
