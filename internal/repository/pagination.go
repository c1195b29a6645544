package repository

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Page size bounds for list queries.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrInvalidCursor is returned when a pagination cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// PaginationCursor represents decoded cursor for pagination.
// IDs are ULIDs, so ordering by id follows creation order.
type PaginationCursor struct {
	ID string `json:"id"`
}

// Page selects one page of an owner's records, newest first.
type Page struct {
	OwnerID string
	Cursor  string
	Limit   int
}

// Normalize clamps the limit into [1, MaxPageSize], defaulting to DefaultPageSize.
func (p Page) Normalize() Page {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageSize
	case p.Limit > MaxPageSize:
		p.Limit = MaxPageSize
	}
	return p
}

// EncodeCursor encodes pagination cursor to base64.
func EncodeCursor(cursor PaginationCursor) string {
	data, _ := json.Marshal(cursor)
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor decodes base64 pagination cursor.
func DecodeCursor(s string) (PaginationCursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return PaginationCursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var cursor PaginationCursor
	if err := json.Unmarshal(data, &cursor); err != nil || cursor.ID == "" {
		return PaginationCursor{}, ErrInvalidCursor
	}

	return cursor, nil
}

// pageQuery appends the keyset condition, ordering and limit to a query whose
// WHERE clause already binds the owner as $1. It fetches one extra row so the
// caller can tell whether another page exists.
func pageQuery(query, idColumn string, page Page) (string, []any, error) {
	args := []any{page.OwnerID}

	if page.Cursor != "" {
		cursor, err := DecodeCursor(page.Cursor)
		if err != nil {
			return "", nil, err
		}
		args = append(args, cursor.ID)
		query += fmt.Sprintf(" AND %s < $%d", idColumn, len(args))
	}

	args = append(args, page.Limit+1)
	query += fmt.Sprintf(" ORDER BY %s DESC LIMIT $%d", idColumn, len(args))
	return query, args, nil
}

// trimPage cuts the extra row fetched by pageQuery and returns the next cursor.
func trimPage[T any](items []T, limit int, id func(T) string) ([]T, string) {
	if len(items) <= limit {
		return items, ""
	}
	items = items[:limit]
	return items, EncodeCursor(PaginationCursor{ID: id(items[len(items)-1])})
}
