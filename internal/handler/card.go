package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardcycle/cardcycle/internal/handler/dto"
	"github.com/cardcycle/cardcycle/internal/service"
)

// CardHandler handles HTTP requests for cards.
type CardHandler struct {
	svc    *service.CardService
	logger *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(svc *service.CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{svc: svc, logger: logger.With("component", "handler.card")}
}

// List handles GET /api/v1/cards.
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, dto.NewListResponse(out.Items, out.NextCursor, out.HasMore, dto.ToCardResponse))
}

// Create handles POST /api/v1/cards.
func (h *CardHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req dto.CreateCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.svc.Create(r.Context(), service.CreateCardInput{
		OwnerID:       owner,
		Name:          req.Name,
		CutOffDay:     req.CutOffDay,
		PaymentDueDay: req.PaymentDueDay,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("card_created", "card_id", card.ID, "owner_id", owner)
	writeJSON(w, http.StatusCreated, dto.ToCardResponse(card))
}

// Get handles GET /api/v1/cards/{id}.
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	card, err := h.svc.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToCardResponse(card))
}

// Replace handles PUT /api/v1/cards/{id}.
func (h *CardHandler) Replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

// Patch handles PATCH /api/v1/cards/{id}.
func (h *CardHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *CardHandler) update(w http.ResponseWriter, r *http.Request, full bool) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if full && !req.Complete() {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "name, cut_off_day and payment_due_day are required")
		return
	}

	card, err := h.svc.Update(r.Context(), owner, chi.URLParam(r, "id"), service.UpdateCardInput{
		Name:          req.Name,
		CutOffDay:     req.CutOffDay,
		PaymentDueDay: req.PaymentDueDay,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("card_updated", "card_id", card.ID, "owner_id", owner)
	writeJSON(w, http.StatusOK, dto.ToCardResponse(card))
}

// Delete handles DELETE /api/v1/cards/{id}.
func (h *CardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), owner, id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("card_deleted", "card_id", id, "owner_id", owner)
	w.WriteHeader(http.StatusNoContent)
}
