package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cardcycle/cardcycle/internal/handler/dto"
	"github.com/cardcycle/cardcycle/internal/service"
)

// ExpenseHandler handles HTTP requests for plain expenses.
type ExpenseHandler struct {
	svc    *service.ExpenseService
	logger *slog.Logger
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(svc *service.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{svc: svc, logger: logger.With("component", "handler.expense")}
}

// List handles GET /api/v1/expenses.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, dto.NewListResponse(out.Items, out.NextCursor, out.HasMore, dto.ToExpenseResponse))
}

// Create handles POST /api/v1/expenses.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req dto.ExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Complete() {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "amount, effective_date and category are required")
		return
	}

	expense, err := h.svc.Create(r.Context(), service.CreateExpenseInput{
		OwnerID:       owner,
		Amount:        *req.Amount,
		EffectiveDate: req.EffectiveDate.Time,
		CategoryName:  req.Category.Name,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("expense_created", "expense_id", expense.ID, "owner_id", owner)
	writeJSON(w, http.StatusCreated, dto.ToExpenseResponse(expense))
}

// Get handles GET /api/v1/expenses/{id}.
func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	expense, err := h.svc.Get(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToExpenseResponse(expense))
}

// Replace handles PUT /api/v1/expenses/{id}.
func (h *ExpenseHandler) Replace(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, true)
}

// Patch handles PATCH /api/v1/expenses/{id}.
func (h *ExpenseHandler) Patch(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, false)
}

func (h *ExpenseHandler) update(w http.ResponseWriter, r *http.Request, full bool) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	var req dto.ExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if full && !req.Complete() {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "amount, effective_date and category are required")
		return
	}

	expense, err := h.svc.Update(r.Context(), owner, chi.URLParam(r, "id"), service.UpdateExpenseInput{
		Amount:        req.Amount,
		EffectiveDate: datePtr(req.EffectiveDate),
		CategoryName:  namePtr(req.Category),
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("expense_updated", "expense_id", expense.ID, "owner_id", owner)
	writeJSON(w, http.StatusOK, dto.ToExpenseResponse(expense))
}

// Delete handles DELETE /api/v1/expenses/{id}.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), owner, id); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("expense_deleted", "expense_id", id, "owner_id", owner)
	w.WriteHeader(http.StatusNoContent)
}

func datePtr(d *dto.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func namePtr(ref *dto.NameRef) *string {
	if ref == nil {
		return nil
	}
	name := ref.Name
	return &name
}
