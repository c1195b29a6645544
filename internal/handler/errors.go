package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cardcycle/cardcycle/internal/service"
)

// handleServiceError maps service errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "INVALID_NAME", err.Error())
	case errors.Is(err, service.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, service.ErrMissingDate):
		writeError(w, http.StatusBadRequest, "MISSING_DATE", err.Error())
	case errors.Is(err, service.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, "INVALID_CURSOR", err.Error())
	case errors.Is(err, service.ErrInvalidCycleDay):
		writeError(w, http.StatusUnprocessableEntity, "INVALID_CYCLE_DAY", err.Error())
	case errors.Is(err, service.ErrDayNotInMonth):
		writeError(w, http.StatusUnprocessableEntity, "DAY_NOT_IN_MONTH", err.Error())

	case errors.Is(err, service.ErrCategoryNotFound):
		writeError(w, http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
	case errors.Is(err, service.ErrCardNotFound):
		writeError(w, http.StatusNotFound, "CARD_NOT_FOUND", "Card not found")
	case errors.Is(err, service.ErrExpenseNotFound):
		writeError(w, http.StatusNotFound, "EXPENSE_NOT_FOUND", "Expense not found")
	case errors.Is(err, service.ErrCreditExpenseNotFound):
		writeError(w, http.StatusNotFound, "CREDIT_EXPENSE_NOT_FOUND", "Credit expense not found")

	case errors.Is(err, service.ErrCategoryExists):
		writeError(w, http.StatusConflict, "CATEGORY_EXISTS", "Category already exists")
	case errors.Is(err, service.ErrCardExists):
		writeError(w, http.StatusConflict, "CARD_EXISTS", "Card already exists")
	case errors.Is(err, service.ErrCategoryInUse):
		writeError(w, http.StatusConflict, "CATEGORY_IN_USE", err.Error())
	case errors.Is(err, service.ErrCardInUse):
		writeError(w, http.StatusConflict, "CARD_IN_USE", err.Error())

	default:
		logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
