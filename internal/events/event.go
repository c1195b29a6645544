// Package events publishes credit expense domain events to a broker.
package events

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cardcycle/cardcycle/internal/model"
)

// Type names a domain event.
type Type string

// Credit expense event types.
const (
	CreditExpenseCreated Type = "credit_expense.created"
	CreditExpenseUpdated Type = "credit_expense.updated"
	CreditExpenseDeleted Type = "credit_expense.deleted"
)

const dateLayout = "2006-01-02"

// Event is the payload written to the broker. Dates are calendar dates and
// the amount keeps its decimal string form.
type Event struct {
	ID              string    `json:"id"`
	Type            Type      `json:"type"`
	OwnerID         string    `json:"owner_id"`
	CreditExpenseID string    `json:"credit_expense_id"`
	Amount          string    `json:"amount,omitempty"`
	CategoryID      string    `json:"category_id,omitempty"`
	CardID          string    `json:"card_id,omitempty"`
	EffectiveDate   string    `json:"effective_date,omitempty"`
	CutOffDate      string    `json:"cut_off_date,omitempty"`
	PaymentDate     string    `json:"payment_date,omitempty"`
	IsPaid          bool      `json:"is_paid"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// NewCreditExpenseEvent snapshots a credit expense into an event of type t.
func NewCreditExpenseEvent(t Type, e *model.CreditExpense) Event {
	return Event{
		ID:              ulid.Make().String(),
		Type:            t,
		OwnerID:         e.OwnerID,
		CreditExpenseID: e.ID,
		Amount:          e.Amount.StringFixed(2),
		CategoryID:      e.Category.ID,
		CardID:          e.Card.ID,
		EffectiveDate:   e.EffectiveDate.Format(dateLayout),
		CutOffDate:      e.CutOffDate.Format(dateLayout),
		PaymentDate:     e.PaymentDate.Format(dateLayout),
		IsPaid:          e.IsPaid,
		OccurredAt:      time.Now().UTC(),
	}
}

// Marshal encodes the event as JSON.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
