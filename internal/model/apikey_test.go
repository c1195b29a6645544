package model

import (
	"slices"
	"testing"
	"time"
)

func TestAPIKey_HasScope(t *testing.T) {
	testCases := []struct {
		name      string
		keyScopes []string
		checkFor  string
		want      bool
	}{
		{"has exact scope", []string{ScopeRead, ScopeWrite}, ScopeRead, true},
		{"missing scope", []string{ScopeRead}, ScopeWrite, false},
		{"admin implies read", []string{ScopeAdmin}, ScopeRead, true},
		{"admin implies write", []string{ScopeAdmin}, ScopeWrite, true},
		{"empty scopes", nil, ScopeRead, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key := &APIKey{Scopes: tc.keyScopes}
			if got := key.HasScope(tc.checkFor); got != tc.want {
				t.Errorf("HasScope(%s) = %v, want %v", tc.checkFor, got, tc.want)
			}

			authCtx := &AuthContext{Scopes: tc.keyScopes}
			if got := authCtx.HasScope(tc.checkFor); got != tc.want {
				t.Errorf("AuthContext.HasScope(%s) = %v, want %v", tc.checkFor, got, tc.want)
			}
		})
	}
}

func TestAPIKey_IsRevoked(t *testing.T) {
	key := &APIKey{}
	if key.IsRevoked() {
		t.Error("new key should not be revoked")
	}

	now := time.Now()
	key.RevokedAt = &now
	if !key.IsRevoked() {
		t.Error("key with revoked_at should be revoked")
	}
}

func TestAPIKey_RateLimit(t *testing.T) {
	tests := []struct {
		tier string
		want RateLimitConfig
	}{
		{TierFree, RateLimitConfig{RequestsPerMinute: 60, Burst: 10}},
		{TierPro, RateLimitConfig{RequestsPerMinute: 600, Burst: 50}},
		{TierUnlimited, RateLimitConfig{}},
		{"bogus", RateLimitConfig{RequestsPerMinute: 60, Burst: 10}},
	}

	for _, tt := range tests {
		key := &APIKey{RateLimitTier: tt.tier}
		if got := key.RateLimit(); got != tt.want {
			t.Errorf("tier %q: got %+v, want %+v", tt.tier, got, tt.want)
		}
	}
}

func TestValidScopes(t *testing.T) {
	for _, scope := range []string{ScopeRead, ScopeWrite, ScopeAdmin} {
		if !slices.Contains(ValidScopes, scope) {
			t.Errorf("ValidScopes missing %q", scope)
		}
	}
	if len(ValidScopes) != 3 {
		t.Errorf("expected 3 scopes, got %d", len(ValidScopes))
	}
}
