// Package testutil holds helpers shared by integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/cardcycle/cardcycle/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

// UniqueID generates a fresh ULID.
func UniqueID() string {
	return ulid.Make().String()
}

// Date returns midnight UTC of the given calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NewTestUser creates a test user with a unique email.
func NewTestUser(t testing.TB) *model.User {
	t.Helper()
	id := UniqueID()
	return &model.User{
		ID:        id,
		Email:     fmt.Sprintf("user-%s@example.com", id),
		Name:      "Test User",
		CreatedAt: time.Now().UTC(),
	}
}

// NewTestAPIKey creates a test API key with sensible defaults.
func NewTestAPIKey(t testing.TB, userID string) *model.APIKey {
	t.Helper()
	now := time.Now().UTC()
	return &model.APIKey{
		ID:            UniqueID(),
		UserID:        userID,
		KeyHash:       fmt.Sprintf("hash-%d", now.UnixNano()),
		KeyPrefix:     "a1b2c3",
		Scopes:        []string{model.ScopeRead, model.ScopeWrite},
		RateLimitTier: model.TierFree,
		Name:          "Test Key",
		CreatedAt:     now,
	}
}

// NewTestCategory creates a test category for the owner.
func NewTestCategory(t testing.TB, ownerID, name string) *model.Category {
	t.Helper()
	now := time.Now().UTC()
	return &model.Category{
		ID:        UniqueID(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestCard creates a test card cutting off on the 28th and due on the 12th.
func NewTestCard(t testing.TB, ownerID, name string) *model.Card {
	t.Helper()
	now := time.Now().UTC()
	return &model.Card{
		ID:            UniqueID(),
		OwnerID:       ownerID,
		Name:          name,
		CutOffDay:     28,
		PaymentDueDay: 12,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewTestCreditExpense creates an unsaved credit expense of 100.50 on
// 2023-11-01 with the dates derived for a 28/12 card.
func NewTestCreditExpense(t testing.TB, category *model.Category, card *model.Card) *model.CreditExpense {
	t.Helper()
	now := time.Now().UTC()
	return &model.CreditExpense{
		ID:            UniqueID(),
		OwnerID:       card.OwnerID,
		Amount:        decimal.RequireFromString("100.50"),
		EffectiveDate: Date(2023, time.November, 1),
		Category:      *category,
		Card:          *card,
		CutOffDate:    Date(2023, time.November, 28),
		PaymentDate:   Date(2023, time.December, 12),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
