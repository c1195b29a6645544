package model

import "time"

// Card is a credit card with a fixed statement cycle.
// CutOffDay is the day of month the statement closes and PaymentDueDay the
// day the statement balance is due. Both are in [1, 30].
type Card struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	CutOffDay     int       `json:"cut_off_day"`
	PaymentDueDay int       `json:"payment_due_day"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
