package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardcycle/cardcycle/internal/model"
)

// Common errors for card repository operations.
var (
	ErrCardNotFound = errors.New("card not found")
	ErrCardExists   = errors.New("card already exists")
	ErrCardInUse    = errors.New("card is referenced by credit expenses")
)

const cardColumns = `id, owner_id, name, cut_off_day, payment_due_day, created_at, updated_at`

// CreateCard inserts a card.
func (r *Repository) CreateCard(ctx context.Context, card *model.Card) error {
	query := `
		INSERT INTO cards (id, owner_id, name, cut_off_day, payment_due_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn(ctx).Exec(ctx, query,
		card.ID,
		card.OwnerID,
		card.Name,
		card.CutOffDay,
		card.PaymentDueDay,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrCardExists
		case isForeignKeyViolation(err):
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create card: %w", err)
	}

	return nil
}

// GetCardByID retrieves one of the owner's cards.
func (r *Repository) GetCardByID(ctx context.Context, ownerID, id string) (*model.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE owner_id = $1 AND id = $2`
	return scanCard(r.conn(ctx).QueryRow(ctx, query, ownerID, id))
}

// GetCardByName retrieves the owner's card with an exact name match.
func (r *Repository) GetCardByName(ctx context.Context, ownerID, name string) (*model.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE owner_id = $1 AND name = $2`
	return scanCard(r.conn(ctx).QueryRow(ctx, query, ownerID, name))
}

// ListCards returns a page of the owner's cards, newest first.
func (r *Repository) ListCards(ctx context.Context, page Page) ([]*model.Card, string, error) {
	query, args, err := pageQuery(`SELECT `+cardColumns+` FROM cards WHERE owner_id = $1`, "id", page)
	if err != nil {
		return nil, "", err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*model.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, "", err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating cards: %w", err)
	}

	cards, next := trimPage(cards, page.Limit, func(c *model.Card) string { return c.ID })
	return cards, next, nil
}

// UpdateCard stores a card's name and cycle days. Dates already derived for
// existing credit expenses are not touched.
func (r *Repository) UpdateCard(ctx context.Context, card *model.Card) error {
	query := `
		UPDATE cards
		SET name = $3, cut_off_day = $4, payment_due_day = $5, updated_at = $6
		WHERE owner_id = $1 AND id = $2
	`

	result, err := r.conn(ctx).Exec(ctx, query,
		card.OwnerID,
		card.ID,
		card.Name,
		card.CutOffDay,
		card.PaymentDueDay,
		card.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCardExists
		}
		return fmt.Errorf("failed to update card: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}

	return nil
}

// DeleteCard removes a card that no credit expense references.
func (r *Repository) DeleteCard(ctx context.Context, ownerID, id string) error {
	result, err := r.conn(ctx).Exec(ctx, `DELETE FROM cards WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCardInUse
		}
		return fmt.Errorf("failed to delete card: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCardNotFound
	}

	return nil
}

func scanCard(row pgx.Row) (*model.Card, error) {
	var c model.Card
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CutOffDay, &c.PaymentDueDay, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}
	return &c, nil
}
