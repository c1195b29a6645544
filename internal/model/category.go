package model

import (
	"strings"
	"time"
)

// MaxNameLength is the maximum length of category and card names.
const MaxNameLength = 50

// Category is a user-defined label grouping expenses (e.g. "food").
// Names are unique per owner.
type Category struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizeName trims surrounding whitespace from a category or card name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidName reports whether a normalized name can be stored.
func ValidName(name string) bool {
	return name != "" && len([]rune(name)) <= MaxNameLength
}
