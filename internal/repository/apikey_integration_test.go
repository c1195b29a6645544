//go:build integration

package repository

import (
	"errors"
	"testing"

	"github.com/cardcycle/cardcycle/internal/model"
	"github.com/cardcycle/cardcycle/internal/testutil"
)

// ============================================================================
// API Key Repository Integration Tests
// ============================================================================

func TestIntegrationAPIKeyRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newTestRepo(t)
	user := createTestUser(t, ctx, repo)

	key := testutil.NewTestAPIKey(t, user.ID)
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	retrieved, err := repo.GetAPIKeyByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKeyByID failed: %v", err)
	}

	if retrieved.UserID != user.ID {
		t.Errorf("UserID mismatch: got %q, want %q", retrieved.UserID, user.ID)
	}
	if retrieved.KeyHash != key.KeyHash {
		t.Errorf("KeyHash mismatch: got %q, want %q", retrieved.KeyHash, key.KeyHash)
	}
	if len(retrieved.Scopes) != 2 || !retrieved.HasScope(model.ScopeWrite) {
		t.Errorf("Scopes mismatch: got %v", retrieved.Scopes)
	}
	if retrieved.RateLimitTier != model.TierFree {
		t.Errorf("RateLimitTier mismatch: got %q, want %q", retrieved.RateLimitTier, model.TierFree)
	}
}

func TestIntegrationAPIKeyRepository_UnknownUser(t *testing.T) {
	ctx, repo := newTestRepo(t)

	err := repo.CreateAPIKey(ctx, testutil.NewTestAPIKey(t, testutil.UniqueID()))
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got: %v", err)
	}
}

func TestIntegrationAPIKeyRepository_GetByID_NotFound(t *testing.T) {
	ctx, repo := newTestRepo(t)

	_, err := repo.GetAPIKeyByID(ctx, testutil.UniqueID())
	if !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("Expected ErrAPIKeyNotFound, got: %v", err)
	}
}

func TestIntegrationAPIKeyRepository_GetByPrefix_ExcludesRevoked(t *testing.T) {
	ctx, repo := newTestRepo(t)
	user := createTestUser(t, ctx, repo)

	key1 := testutil.NewTestAPIKey(t, user.ID)
	key2 := testutil.NewTestAPIKey(t, user.ID)
	for _, k := range []*model.APIKey{key1, key2} {
		k.KeyPrefix = "ffee00"
		if err := repo.CreateAPIKey(ctx, k); err != nil {
			t.Fatalf("CreateAPIKey failed: %v", err)
		}
	}

	if err := repo.RevokeAPIKey(ctx, user.ID, key1.ID); err != nil {
		t.Fatalf("RevokeAPIKey failed: %v", err)
	}

	keys, err := repo.GetAPIKeysByPrefix(ctx, "ffee00")
	if err != nil {
		t.Fatalf("GetAPIKeysByPrefix failed: %v", err)
	}

	if len(keys) != 1 || keys[0].ID != key2.ID {
		t.Errorf("Expected only key2 to be active, got %d keys", len(keys))
	}
}

func TestIntegrationAPIKeyRepository_RevokeScopedToUser(t *testing.T) {
	ctx, repo := newTestRepo(t)
	owner := createTestUser(t, ctx, repo)
	other := createTestUser(t, ctx, repo)

	key := testutil.NewTestAPIKey(t, owner.ID)
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	if err := repo.RevokeAPIKey(ctx, other.ID, key.ID); !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("revoking another user's key: expected ErrAPIKeyNotFound, got %v", err)
	}

	if err := repo.RevokeAPIKey(ctx, owner.ID, key.ID); err != nil {
		t.Fatalf("RevokeAPIKey failed: %v", err)
	}
	if err := repo.RevokeAPIKey(ctx, owner.ID, key.ID); !errors.Is(err, ErrAPIKeyNotFound) {
		t.Errorf("double revoke: expected ErrAPIKeyNotFound, got %v", err)
	}
}

func TestIntegrationAPIKeyRepository_UpdateLastUsed(t *testing.T) {
	ctx, repo := newTestRepo(t)
	user := createTestUser(t, ctx, repo)

	key := testutil.NewTestAPIKey(t, user.ID)
	if err := repo.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	if err := repo.UpdateAPIKeyLastUsed(ctx, key.ID); err != nil {
		t.Fatalf("UpdateAPIKeyLastUsed failed: %v", err)
	}

	retrieved, err := repo.GetAPIKeyByID(ctx, key.ID)
	if err != nil {
		t.Fatalf("GetAPIKeyByID failed: %v", err)
	}
	if retrieved.LastUsedAt == nil {
		t.Error("LastUsedAt should be set after update")
	}
}

func TestIntegrationUserRepository_GetOrCreate(t *testing.T) {
	ctx, repo := newTestRepo(t)

	user := testutil.NewTestUser(t)
	first, err := repo.GetOrCreateUser(ctx, user)
	if err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}

	again := testutil.NewTestUser(t)
	again.Email = user.Email
	second, err := repo.GetOrCreateUser(ctx, again)
	if err != nil {
		t.Fatalf("GetOrCreateUser (again) failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected the same user, got %s and %s", first.ID, second.ID)
	}
}
