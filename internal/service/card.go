package service

import (
	"context"

	"github.com/cardcycle/cardcycle/internal/billing"
	"github.com/cardcycle/cardcycle/internal/metrics"
	"github.com/cardcycle/cardcycle/internal/model"
)

// CardService handles card business logic.
type CardService struct {
	store   Store
	metrics metrics.Recorder
}

// NewCardService creates a new CardService.
func NewCardService(store Store, recorder metrics.Recorder) *CardService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CardService{store: store, metrics: recorder}
}

// CreateCardInput defines input for creating a card.
type CreateCardInput struct {
	OwnerID       string
	Name          string
	CutOffDay     int
	PaymentDueDay int
}

// Create registers a card.
func (s *CardService) Create(ctx context.Context, input CreateCardInput) (*model.Card, error) {
	name, err := validateName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validateCycleDays(input.CutOffDay, input.PaymentDueDay); err != nil {
		return nil, err
	}

	ts := now()
	card := &model.Card{
		ID:            newID(),
		OwnerID:       input.OwnerID,
		Name:          name,
		CutOffDay:     input.CutOffDay,
		PaymentDueDay: input.PaymentDueDay,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}

	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, translate(err)
	}

	s.metrics.IncRecordCreated(metrics.KindCard)
	return card, nil
}

// Get retrieves one of the owner's cards.
func (s *CardService) Get(ctx context.Context, ownerID, id string) (*model.Card, error) {
	card, err := s.store.GetCardByID(ctx, ownerID, id)
	if err != nil {
		return nil, translate(err)
	}
	return card, nil
}

// FindByName looks a card up by exact name. Cards are never created implicitly.
func (s *CardService) FindByName(ctx context.Context, ownerID, name string) (*model.Card, error) {
	card, err := s.store.GetCardByName(ctx, ownerID, model.NormalizeName(name))
	if err != nil {
		return nil, translate(err)
	}
	return card, nil
}

// List returns a page of the owner's cards, newest first.
func (s *CardService) List(ctx context.Context, input ListInput) (*ListOutput[*model.Card], error) {
	items, next, err := s.store.ListCards(ctx, input.page())
	if err != nil {
		return nil, translate(err)
	}
	return newListOutput(items, next), nil
}

// UpdateCardInput defines a partial card update.
type UpdateCardInput struct {
	Name          *string
	CutOffDay     *int
	PaymentDueDay *int
}

// Update changes a card. Dates already derived for its credit expenses keep
// their values; they are recomputed only when an expense's effective date is updated.
func (s *CardService) Update(ctx context.Context, ownerID, id string, input UpdateCardInput) (*model.Card, error) {
	card, err := s.store.GetCardByID(ctx, ownerID, id)
	if err != nil {
		return nil, translate(err)
	}

	if input.Name != nil {
		name, err := validateName(*input.Name)
		if err != nil {
			return nil, err
		}
		card.Name = name
	}
	if input.CutOffDay != nil {
		card.CutOffDay = *input.CutOffDay
	}
	if input.PaymentDueDay != nil {
		card.PaymentDueDay = *input.PaymentDueDay
	}
	if err := validateCycleDays(card.CutOffDay, card.PaymentDueDay); err != nil {
		return nil, err
	}

	card.UpdatedAt = now()
	if err := s.store.UpdateCard(ctx, card); err != nil {
		return nil, translate(err)
	}

	s.metrics.IncRecordUpdated(metrics.KindCard)
	return card, nil
}

// Delete removes a card no credit expense references.
func (s *CardService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteCard(ctx, ownerID, id); err != nil {
		return translate(err)
	}
	s.metrics.IncRecordDeleted(metrics.KindCard)
	return nil
}

func validateCycleDays(cutOffDay, paymentDueDay int) error {
	if err := billing.ValidateCycleDay(cutOffDay); err != nil {
		return err
	}
	return billing.ValidateCycleDay(paymentDueDay)
}
