// Package model defines domain entities for the application.
package model

import "time"

// User is an account owner. Every category, card and expense belongs to exactly one user.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
