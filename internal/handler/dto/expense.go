package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardcycle/cardcycle/internal/model"
)

// ExpenseRequest is the body of expense create, PUT and PATCH.
// Amount accepts a JSON number or a decimal string.
type ExpenseRequest struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	EffectiveDate *Date            `json:"effective_date,omitempty"`
	Category      *NameRef         `json:"category,omitempty"`
}

// Complete reports whether every field is present.
func (r ExpenseRequest) Complete() bool {
	return r.Amount != nil && r.EffectiveDate != nil && r.Category != nil
}

// CreditExpenseRequest is the body of credit expense create, PUT and PATCH.
// IsPaid is ignored on create.
type CreditExpenseRequest struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	EffectiveDate *Date            `json:"effective_date,omitempty"`
	Category      *NameRef         `json:"category,omitempty"`
	Card          *NameRef         `json:"card,omitempty"`
	IsPaid        *bool            `json:"is_paid,omitempty"`
}

// Complete reports whether every field a full replacement needs is present.
func (r CreditExpenseRequest) Complete() bool {
	return r.Amount != nil && r.EffectiveDate != nil && r.Category != nil && r.Card != nil
}

// Ref identifies a related record in responses.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExpenseResponse represents an expense.
type ExpenseResponse struct {
	ID            string    `json:"id"`
	Amount        string    `json:"amount"`
	EffectiveDate Date      `json:"effective_date"`
	Category      Ref       `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToExpenseResponse converts an expense.
func ToExpenseResponse(e *model.Expense) ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		Amount:        e.Amount.StringFixed(2),
		EffectiveDate: NewDate(e.EffectiveDate),
		Category:      Ref{ID: e.Category.ID, Name: e.Category.Name},
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// CreditExpenseResponse represents a credit expense with its derived dates.
type CreditExpenseResponse struct {
	ID            string    `json:"id"`
	Amount        string    `json:"amount"`
	EffectiveDate Date      `json:"effective_date"`
	Category      Ref       `json:"category"`
	Card          Ref       `json:"card"`
	CutOffDate    Date      `json:"cut_off_date"`
	PaymentDate   Date      `json:"payment_date"`
	IsPaid        bool      `json:"is_paid"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToCreditExpenseResponse converts a credit expense.
func ToCreditExpenseResponse(e *model.CreditExpense) CreditExpenseResponse {
	return CreditExpenseResponse{
		ID:            e.ID,
		Amount:        e.Amount.StringFixed(2),
		EffectiveDate: NewDate(e.EffectiveDate),
		Category:      Ref{ID: e.Category.ID, Name: e.Category.Name},
		Card:          Ref{ID: e.Card.ID, Name: e.Card.Name},
		CutOffDate:    NewDate(e.CutOffDate),
		PaymentDate:   NewDate(e.PaymentDate),
		IsPaid:        e.IsPaid,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}
