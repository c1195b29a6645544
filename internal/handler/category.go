package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardcycle/cardcycle/internal/handler/dto"
	"github.com/cardcycle/cardcycle/internal/service"
)

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	svc    *service.CategoryService
	logger *slog.Logger
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(svc *service.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{svc: svc, logger: logger.With("component", "handler.category")}
}

// List handles GET /api/v1/categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	in, ok := listInput(w, r, owner)
	if !ok {
		return
	}

	out, err := h.svc.List(r.Context(), in)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewListResponse(out.Items, out.NextCursor, out.HasMore, dto.ToCategoryResponse))
}

// Create handles POST /api/v1/categories.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req dto.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.svc.Create(r.Context(), owner, req.Name)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("category_created", "category_id", category.ID, "owner_id", owner)
	writeJSON(w, http.StatusCreated, dto.ToCategoryResponse(category))
}

// Get handles GET /api/v1/categories/{id}.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	category, err := h.svc.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToCategoryResponse(category))
}

// Rename handles PUT and PATCH /api/v1/categories/{id}. A name is the only
// mutable field, so both verbs require it.
func (h *CategoryHandler) Rename(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req dto.CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.svc.Rename(r.Context(), owner, chi.URLParam(r, "id"), req.Name)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("category_renamed", "category_id", category.ID, "owner_id", owner)
	writeJSON(w, http.StatusOK, dto.ToCategoryResponse(category))
}

// Delete handles DELETE /api/v1/categories/{id}.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), owner, id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("category_deleted", "category_id", id, "owner_id", owner)
	w.WriteHeader(http.StatusNoContent)
}
