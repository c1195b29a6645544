package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardcycle/cardcycle/internal/billing"
	"github.com/cardcycle/cardcycle/internal/events"
	"github.com/cardcycle/cardcycle/internal/metrics"
	"github.com/cardcycle/cardcycle/internal/model"
)

// CreditExpenseService records purchases made with a credit card and derives
// their statement cut-off and payment dates from the card's cycle days.
type CreditExpenseService struct {
	store   Store
	calc    billing.Calculator
	events  events.Emitter
	metrics metrics.Recorder
}

// NewCreditExpenseService creates a new CreditExpenseService.
func NewCreditExpenseService(store Store, calc billing.Calculator, emitter events.Emitter, recorder metrics.Recorder) *CreditExpenseService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if emitter == nil {
		emitter = events.Discard
	}
	return &CreditExpenseService{
		store:   store,
		calc:    calc,
		events:  emitter,
		metrics: recorder,
	}
}

// CreateCreditExpenseInput defines input for creating a credit expense.
type CreateCreditExpenseInput struct {
	OwnerID       string
	Amount        decimal.Decimal
	EffectiveDate time.Time
	CategoryName  string
	CardName      string
}

// Create records a purchase. The category is created when the owner has none
// with that name; the card must already exist. Category, card lookup and insert
// share one transaction, so a failure leaves nothing behind.
func (s *CreditExpenseService) Create(ctx context.Context, input CreateCreditExpenseInput) (*model.CreditExpense, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveWriteDuration(time.Since(start)) }()

	if err := validateAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.EffectiveDate.IsZero() {
		return nil, ErrMissingDate
	}

	var expense *model.CreditExpense
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		category, err := resolveCategory(ctx, s.store, s.metrics, input.OwnerID, input.CategoryName)
		if err != nil {
			return err
		}

		card, err := s.findCard(ctx, input.OwnerID, input.CardName)
		if err != nil {
			return err
		}

		effective := model.DateOnly(input.EffectiveDate)
		schedule, err := s.schedule(effective, card)
		if err != nil {
			return err
		}

		ts := now()
		expense = &model.CreditExpense{
			ID:            newID(),
			OwnerID:       input.OwnerID,
			Amount:        input.Amount,
			EffectiveDate: effective,
			Category:      *category,
			Card:          *card,
			CutOffDate:    schedule.CutOff,
			PaymentDate:   schedule.Payment,
			IsPaid:        false,
			CreatedAt:     ts,
			UpdatedAt:     ts,
		}

		if err := s.store.CreateCreditExpense(ctx, expense); err != nil {
			return fmt.Errorf("failed to create credit expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.metrics.IncRecordCreated(metrics.KindCreditExpense)
	s.events.Emit(events.NewCreditExpenseEvent(events.CreditExpenseCreated, expense))

	return expense, nil
}

// UpdateCreditExpenseInput defines a partial update. Nil fields are left unchanged.
type UpdateCreditExpenseInput struct {
	Amount        *decimal.Decimal
	EffectiveDate *time.Time
	CategoryName  *string
	CardName      *string
	IsPaid        *bool
}

// Update applies input to existing and stores the result.
//
// Cut-off and payment dates are recomputed only when EffectiveDate is set,
// using the card the expense references after the update. Changing only the
// card keeps the previously derived dates.
func (s *CreditExpenseService) Update(ctx context.Context, existing *model.CreditExpense, ownerID string, input UpdateCreditExpenseInput) (*model.CreditExpense, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveWriteDuration(time.Since(start)) }()

	if existing == nil || existing.OwnerID != ownerID {
		return nil, ErrCreditExpenseNotFound
	}
	if input.Amount != nil {
		if err := validateAmount(*input.Amount); err != nil {
			return nil, err
		}
	}
	if input.EffectiveDate != nil && input.EffectiveDate.IsZero() {
		return nil, ErrMissingDate
	}

	updated := *existing
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		if input.CategoryName != nil {
			category, err := resolveCategory(ctx, s.store, s.metrics, ownerID, *input.CategoryName)
			if err != nil {
				return err
			}
			updated.Category = *category
		}

		if input.CardName != nil {
			card, err := s.findCard(ctx, ownerID, *input.CardName)
			if err != nil {
				return err
			}
			updated.Card = *card
		}

		if input.EffectiveDate != nil {
			updated.EffectiveDate = model.DateOnly(*input.EffectiveDate)
			schedule, err := s.schedule(updated.EffectiveDate, &updated.Card)
			if err != nil {
				return err
			}
			updated.CutOffDate = schedule.CutOff
			updated.PaymentDate = schedule.Payment
		}

		if input.Amount != nil {
			updated.Amount = *input.Amount
		}
		if input.IsPaid != nil {
			updated.IsPaid = *input.IsPaid
		}

		updated.UpdatedAt = now()
		if err := s.store.UpdateCreditExpense(ctx, &updated); err != nil {
			return fmt.Errorf("failed to update credit expense: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.metrics.IncRecordUpdated(metrics.KindCreditExpense)
	s.events.Emit(events.NewCreditExpenseEvent(events.CreditExpenseUpdated, &updated))

	return &updated, nil
}

// UpdateByID loads the owner's credit expense and applies input to it.
// Records of other owners are reported as ErrCreditExpenseNotFound.
func (s *CreditExpenseService) UpdateByID(ctx context.Context, ownerID, id string, input UpdateCreditExpenseInput) (*model.CreditExpense, error) {
	existing, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return s.Update(ctx, existing, ownerID, input)
}

// Get retrieves one of the owner's credit expenses.
func (s *CreditExpenseService) Get(ctx context.Context, ownerID, id string) (*model.CreditExpense, error) {
	expense, err := s.store.GetCreditExpenseByID(ctx, ownerID, id)
	if err != nil {
		return nil, translate(err)
	}
	return expense, nil
}

// List returns a page of the owner's credit expenses, newest first.
func (s *CreditExpenseService) List(ctx context.Context, input ListInput) (*ListOutput[*model.CreditExpense], error) {
	items, next, err := s.store.ListCreditExpenses(ctx, input.page())
	if err != nil {
		return nil, translate(err)
	}
	return newListOutput(items, next), nil
}

// Delete removes one of the owner's credit expenses.
func (s *CreditExpenseService) Delete(ctx context.Context, ownerID, id string) error {
	expense, err := s.store.GetCreditExpenseByID(ctx, ownerID, id)
	if err != nil {
		return translate(err)
	}

	if err := s.store.DeleteCreditExpense(ctx, ownerID, id); err != nil {
		return translate(err)
	}

	s.metrics.IncRecordDeleted(metrics.KindCreditExpense)
	s.events.Emit(events.NewCreditExpenseEvent(events.CreditExpenseDeleted, expense))
	return nil
}

// findCard resolves a card by name. Cards are never created implicitly.
func (s *CreditExpenseService) findCard(ctx context.Context, ownerID, name string) (*model.Card, error) {
	card, err := s.store.GetCardByName(ctx, ownerID, model.NormalizeName(name))
	if err != nil {
		return nil, translate(err)
	}
	return card, nil
}

func (s *CreditExpenseService) schedule(effective time.Time, card *model.Card) (billing.Schedule, error) {
	schedule, err := s.calc.Schedule(effective, card.CutOffDay, card.PaymentDueDay)
	if err != nil {
		return billing.Schedule{}, fmt.Errorf("card %q: %w", card.Name, err)
	}
	s.metrics.IncScheduleComputed()
	return schedule, nil
}
