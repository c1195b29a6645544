package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/cardcycle/cardcycle/internal/auth"
	"github.com/cardcycle/cardcycle/internal/handler/dto"
	"github.com/cardcycle/cardcycle/internal/model"
	"github.com/cardcycle/cardcycle/internal/repository"
)

// APIKeyStore persists API keys.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error)
	ListAPIKeysByUserID(ctx context.Context, userID string) ([]*model.APIKey, error)
	RevokeAPIKey(ctx context.Context, userID, id string) error
}

// KeyInvalidator drops cached authentication for a revoked key.
type KeyInvalidator interface {
	InvalidateAPIKey(ctx context.Context, apiKeyID string) error
}

// APIKeyHandler handles API key management endpoints.
type APIKeyHandler struct {
	logger      *slog.Logger
	store       APIKeyStore
	invalidator KeyInvalidator
	env         string
}

// NewAPIKeyHandler creates a new APIKeyHandler. invalidator may be nil.
func NewAPIKeyHandler(logger *slog.Logger, store APIKeyStore, invalidator KeyInvalidator, env string) *APIKeyHandler {
	if env == "" {
		env = auth.EnvLive
	}
	return &APIKeyHandler{
		logger:      logger.With("component", "handler.apikey"),
		store:       store,
		invalidator: invalidator,
		env:         env,
	}
}

// Create handles POST /api/v1/api-keys.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req dto.CreateAPIKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	for _, scope := range req.Scopes {
		if !slices.Contains(model.ValidScopes, scope) {
			writeError(w, http.StatusBadRequest, "INVALID_SCOPE",
				"Invalid scope: "+scope+". Valid scopes: read, write, admin")
			return
		}
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{model.ScopeRead}
	}

	key, plaintext, err := h.issue(r.Context(), owner, req.Name, req.Scopes, model.TierFree)
	if err != nil {
		h.logger.Error("api_key_create_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create API key")
		return
	}

	h.logger.Info("api_key_created", "key_id", key.ID, "key_prefix", key.KeyPrefix, "owner_id", owner)
	writeJSON(w, http.StatusCreated, dto.CreateAPIKeyResponse{
		APIKeyResponse: dto.ToAPIKeyResponse(key),
		Key:            plaintext,
	})
}

// List handles GET /api/v1/api-keys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	keys, err := h.store.ListAPIKeysByUserID(r.Context(), owner)
	if err != nil {
		h.logger.Error("api_key_list_failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys")
		return
	}

	out := make([]dto.APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, dto.ToAPIKeyResponse(k))
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": out})
}

// Revoke handles DELETE /api/v1/api-keys/{key_id}.
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	keyID := chi.URLParam(r, "key_id")
	if _, ok := h.activeKey(w, r, owner, keyID); !ok {
		return
	}

	if err := h.revoke(r.Context(), owner, keyID); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			writeKeyNotFound(w)
			return
		}
		h.logger.Error("api_key_revoke_failed", "key_id", keyID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke API key")
		return
	}

	h.logger.Info("api_key_revoked", "key_id", keyID, "owner_id", owner)
	w.WriteHeader(http.StatusNoContent)
}

// Rotate handles POST /api/v1/api-keys/{key_id}/rotate. The replacement is
// stored before the old key is revoked so the owner is never left without one.
func (h *APIKeyHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	old, ok := h.activeKey(w, r, owner, chi.URLParam(r, "key_id"))
	if !ok {
		return
	}

	key, plaintext, err := h.issue(r.Context(), owner, old.Name, old.Scopes, old.RateLimitTier)
	if err != nil {
		h.logger.Error("api_key_rotate_failed", "key_id", old.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to rotate API key")
		return
	}

	revokedAt := time.Now().UTC()
	if err := h.revoke(r.Context(), owner, old.ID); err != nil {
		// The new key exists; the old one stays usable until revoked again.
		h.logger.Error("api_key_rotate_revoke_failed", "key_id", old.ID, "error", err)
	}

	h.logger.Info("api_key_rotated", "old_key_id", old.ID, "new_key_id", key.ID, "owner_id", owner)
	writeJSON(w, http.StatusCreated, dto.RotateAPIKeyResponse{
		OldKeyID:        old.ID,
		OldKeyRevokedAt: revokedAt,
		NewKey: dto.CreateAPIKeyResponse{
			APIKeyResponse: dto.ToAPIKeyResponse(key),
			Key:            plaintext,
		},
	})
}

// activeKey loads an unrevoked key of owner. Missing, foreign and revoked
// keys all answer 404 so key IDs cannot be enumerated.
func (h *APIKeyHandler) activeKey(w http.ResponseWriter, r *http.Request, owner, keyID string) (*model.APIKey, bool) {
	if keyID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Key ID is required")
		return nil, false
	}

	key, err := h.store.GetAPIKeyByID(r.Context(), keyID)
	if err != nil {
		if !errors.Is(err, repository.ErrAPIKeyNotFound) {
			h.logger.Error("api_key_lookup_failed", "key_id", keyID, "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load API key")
			return nil, false
		}
		writeKeyNotFound(w)
		return nil, false
	}
	if key.UserID != owner || key.IsRevoked() {
		writeKeyNotFound(w)
		return nil, false
	}
	return key, true
}

func (h *APIKeyHandler) issue(ctx context.Context, owner, name string, scopes []string, tier string) (*model.APIKey, string, error) {
	generated, err := auth.NewKey(h.env)
	if err != nil {
		return nil, "", err
	}

	key := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        owner,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        scopes,
		RateLimitTier: tier,
		Name:          name,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.store.CreateAPIKey(ctx, key); err != nil {
		return nil, "", err
	}
	return key, generated.Plaintext, nil
}

func (h *APIKeyHandler) revoke(ctx context.Context, owner, keyID string) error {
	if err := h.store.RevokeAPIKey(ctx, owner, keyID); err != nil {
		return err
	}
	if h.invalidator != nil {
		if err := h.invalidator.InvalidateAPIKey(ctx, keyID); err != nil {
			h.logger.Warn("api_key_cache_invalidate_failed", "key_id", keyID, "error", err)
		}
	}
	return nil
}

func writeKeyNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found or already revoked")
}
