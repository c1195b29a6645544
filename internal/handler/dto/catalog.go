package dto

import (
	"time"

	"github.com/cardcycle/cardcycle/internal/model"
)

// NameRef references a category or card by name in request bodies.
type NameRef struct {
	Name string `json:"name"`
}

// CategoryRequest is the body of category create and rename.
type CategoryRequest struct {
	Name string `json:"name"`
}

// CategoryResponse represents a category.
type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a category.
func ToCategoryResponse(c *model.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

// CreateCardRequest is the body of card creation.
type CreateCardRequest struct {
	Name          string `json:"name"`
	CutOffDay     int    `json:"cut_off_day"`
	PaymentDueDay int    `json:"payment_due_day"`
}

// UpdateCardRequest is the body of card updates. PUT requires every field.
type UpdateCardRequest struct {
	Name          *string `json:"name,omitempty"`
	CutOffDay     *int    `json:"cut_off_day,omitempty"`
	PaymentDueDay *int    `json:"payment_due_day,omitempty"`
}

// Complete reports whether every field is present.
func (r UpdateCardRequest) Complete() bool {
	return r.Name != nil && r.CutOffDay != nil && r.PaymentDueDay != nil
}

// CardResponse represents a card.
type CardResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CutOffDay     int       `json:"cut_off_day"`
	PaymentDueDay int       `json:"payment_due_day"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToCardResponse converts a card.
func ToCardResponse(c *model.Card) CardResponse {
	return CardResponse{
		ID:            c.ID,
		Name:          c.Name,
		CutOffDay:     c.CutOffDay,
		PaymentDueDay: c.PaymentDueDay,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
