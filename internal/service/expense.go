package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardcycle/cardcycle/internal/metrics"
	"github.com/cardcycle/cardcycle/internal/model"
)

// ExpenseService handles plain, non-card expenses.
type ExpenseService struct {
	store   Store
	metrics metrics.Recorder
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store Store, recorder metrics.Recorder) *ExpenseService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ExpenseService{store: store, metrics: recorder}
}

// CreateExpenseInput defines input for creating an expense.
type CreateExpenseInput struct {
	OwnerID       string
	Amount        decimal.Decimal
	EffectiveDate time.Time
	CategoryName  string
}

// Create records an expense, creating its category when needed.
func (s *ExpenseService) Create(ctx context.Context, input CreateExpenseInput) (*model.Expense, error) {
	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.EffectiveDate.IsZero() {
		return nil, ErrMissingDate
	}

	var expense *model.Expense
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		category, err := resolveCategory(ctx, s.store, s.metrics, input.OwnerID, input.CategoryName)
		if err != nil {
			return err
		}

		ts := now()
		expense = &model.Expense{
			ID:            newID(),
			OwnerID:       input.OwnerID,
			Amount:        input.Amount,
			EffectiveDate: model.DateOnly(input.EffectiveDate),
			Category:      *category,
			CreatedAt:     ts,
			UpdatedAt:     ts,
		}

		if err := s.store.CreateExpense(ctx, expense); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.metrics.IncRecordCreated(metrics.KindExpense)
	return expense, nil
}

// UpdateExpenseInput defines a partial expense update.
type UpdateExpenseInput struct {
	Amount        *decimal.Decimal
	EffectiveDate *time.Time
	CategoryName  *string
}

// Update changes one of the owner's expenses.
func (s *ExpenseService) Update(ctx context.Context, ownerID, id string, input UpdateExpenseInput) (*model.Expense, error) {
	if input.Amount != nil {
		if err := validateAmount(*input.Amount); err != nil {
			return nil, err
		}
	}
	if input.EffectiveDate != nil && input.EffectiveDate.IsZero() {
		return nil, ErrMissingDate
	}

	var expense *model.Expense
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		expense, err = s.store.GetExpenseByID(ctx, ownerID, id)
		if err != nil {
			return err
		}

		if input.CategoryName != nil {
			category, err := resolveCategory(ctx, s.store, s.metrics, ownerID, *input.CategoryName)
			if err != nil {
				return err
			}
			expense.Category = *category
		}
		if input.Amount != nil {
			expense.Amount = *input.Amount
		}
		if input.EffectiveDate != nil {
			expense.EffectiveDate = model.DateOnly(*input.EffectiveDate)
		}

		expense.UpdatedAt = now()
		return s.store.UpdateExpense(ctx, expense)
	})
	if err != nil {
		return nil, translate(err)
	}

	s.metrics.IncRecordUpdated(metrics.KindExpense)
	return expense, nil
}

// Get retrieves one of the owner's expenses.
func (s *ExpenseService) Get(ctx context.Context, ownerID, id string) (*model.Expense, error) {
	expense, err := s.store.GetExpenseByID(ctx, ownerID, id)
	if err != nil {
		return nil, translate(err)
	}
	return expense, nil
}

// List returns a page of the owner's expenses, newest first.
func (s *ExpenseService) List(ctx context.Context, input ListInput) (*ListOutput[*model.Expense], error) {
	items, next, err := s.store.ListExpenses(ctx, input.page())
	if err != nil {
		return nil, translate(err)
	}
	return newListOutput(items, next), nil
}

// Delete removes one of the owner's expenses.
func (s *ExpenseService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		return translate(err)
	}
	s.metrics.IncRecordDeleted(metrics.KindExpense)
	return nil
}
