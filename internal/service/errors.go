package service

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/cardcycle/cardcycle/internal/billing"
	"github.com/cardcycle/cardcycle/internal/model"
	"github.com/cardcycle/cardcycle/internal/repository"
)

// Service errors.
var (
	ErrInvalidName     = errors.New("name must be 1 to 50 characters")
	ErrInvalidAmount   = errors.New("amount must be positive with at most 2 decimal places")
	ErrMissingDate     = errors.New("effective date is required")
	ErrInvalidCursor   = errors.New("invalid pagination cursor")
	ErrInvalidCycleDay = billing.ErrInvalidCycleDay
	ErrDayNotInMonth   = billing.ErrDayNotInMonth

	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryInUse    = errors.New("category is still referenced by expenses")

	ErrCardNotFound = errors.New("card not found")
	ErrCardExists   = errors.New("card already exists")
	ErrCardInUse    = errors.New("card is still referenced by credit expenses")

	ErrExpenseNotFound       = errors.New("expense not found")
	ErrCreditExpenseNotFound = errors.New("credit expense not found")
)

// maxAmount is the first value that no longer fits NUMERIC(12,2).
var maxAmount = decimal.New(1, 10)

// translate maps store errors onto service errors. Unknown errors pass through.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrInvalidCursor):
		return ErrInvalidCursor
	case errors.Is(err, repository.ErrCategoryNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repository.ErrCategoryExists):
		return ErrCategoryExists
	case errors.Is(err, repository.ErrCategoryInUse):
		return ErrCategoryInUse
	case errors.Is(err, repository.ErrCardNotFound):
		return ErrCardNotFound
	case errors.Is(err, repository.ErrCardExists):
		return ErrCardExists
	case errors.Is(err, repository.ErrCardInUse):
		return ErrCardInUse
	case errors.Is(err, repository.ErrExpenseNotFound):
		return ErrExpenseNotFound
	case errors.Is(err, repository.ErrCreditExpenseNotFound):
		return ErrCreditExpenseNotFound
	}
	return err
}

func validateAmount(amount decimal.Decimal) error {
	if amount.Sign() <= 0 || !amount.Equal(amount.Round(2)) || amount.GreaterThanOrEqual(maxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

func validateName(name string) (string, error) {
	name = model.NormalizeName(name)
	if !model.ValidName(name) {
		return "", ErrInvalidName
	}
	return name, nil
}
