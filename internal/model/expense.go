package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a purchase not tied to a credit card.
type Expense struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	Amount        decimal.Decimal `json:"amount"`
	EffectiveDate time.Time       `json:"effective_date"`
	Category      Category        `json:"category"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CreditExpense is a purchase charged to a credit card.
// CutOffDate and PaymentDate are always derived from EffectiveDate and the
// card's cycle days; callers never set them directly.
type CreditExpense struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	Amount        decimal.Decimal `json:"amount"`
	EffectiveDate time.Time       `json:"effective_date"`
	Category      Category        `json:"category"`
	Card          Card            `json:"card"`
	CutOffDate    time.Time       `json:"cut_off_date"`
	PaymentDate   time.Time       `json:"payment_date"`
	IsPaid        bool            `json:"is_paid"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
