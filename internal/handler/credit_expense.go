package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardcycle/cardcycle/internal/handler/dto"
	"github.com/cardcycle/cardcycle/internal/service"
)

// CreditExpenseHandler handles HTTP requests for credit expenses.
type CreditExpenseHandler struct {
	svc    *service.CreditExpenseService
	logger *slog.Logger
}

// NewCreditExpenseHandler creates a new CreditExpenseHandler.
func NewCreditExpenseHandler(svc *service.CreditExpenseService, logger *slog.Logger) *CreditExpenseHandler {
	return &CreditExpenseHandler{svc: svc, logger: logger.With("component", "handler.credit_expense")}
}

// List handles GET /api/v1/credit-expenses.
func (h *CreditExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, dto.NewListResponse(out.Items, out.NextCursor, out.HasMore, dto.ToCreditExpenseResponse))
}

// Create handles POST /api/v1/credit-expenses. The category is created when
// missing; the card must exist.
func (h *CreditExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req dto.CreditExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Complete() {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "amount, effective_date, category and card are required")
		return
	}

	expense, err := h.svc.Create(r.Context(), service.CreateCreditExpenseInput{
		OwnerID:       owner,
		Amount:        *req.Amount,
		EffectiveDate: req.EffectiveDate.Time,
		CategoryName:  req.Category.Name,
		CardName:      req.Card.Name,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("credit_expense_created",
		"credit_expense_id", expense.ID,
		"owner_id", owner,
		"card_id", expense.Card.ID,
		"payment_date", expense.PaymentDate.Format(dto.DateLayout),
	)
	writeJSON(w, http.StatusCreated, dto.ToCreditExpenseResponse(expense))
}

// Get handles GET /api/v1/credit-expenses/{id}.
func (h *CreditExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	expense, err := h.svc.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToCreditExpenseResponse(expense))
}

// Replace handles PUT /api/v1/credit-expenses/{id}.
func (h *CreditExpenseHandler) Replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

// Patch handles PATCH /api/v1/credit-expenses/{id}.
func (h *CreditExpenseHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *CreditExpenseHandler) update(w http.ResponseWriter, r *http.Request, full bool) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req dto.CreditExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if full && !req.Complete() {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "amount, effective_date, category and card are required")
		return
	}

	expense, err := h.svc.UpdateByID(r.Context(), owner, chi.URLParam(r, "id"), service.UpdateCreditExpenseInput{
		Amount:        req.Amount,
		EffectiveDate: datePtr(req.EffectiveDate),
		CategoryName:  namePtr(req.Category),
		CardName:      namePtr(req.Card),
		IsPaid:        req.IsPaid,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("credit_expense_updated", "credit_expense_id", expense.ID, "owner_id", owner)
	writeJSON(w, http.StatusOK, dto.ToCreditExpenseResponse(expense))
}

// Delete handles DELETE /api/v1/credit-expenses/{id}.
func (h *CreditExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), owner, id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("credit_expense_deleted", "credit_expense_id", id, "owner_id", owner)
	w.WriteHeader(http.StatusNoContent)
}
