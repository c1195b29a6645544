package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cardcycle/cardcycle/internal/model"
)

// Common errors for credit expense repository operations.
var (
	ErrCreditExpenseNotFound = errors.New("credit expense not found")
)

const creditExpenseSelect = `
	SELECT x.id, x.owner_id, x.amount::text, x.effective_date, x.cut_off_date, x.payment_date,
	       x.is_paid, x.created_at, x.updated_at,
	       c.id, c.owner_id, c.name, c.created_at, c.updated_at,
	       k.id, k.owner_id, k.name, k.cut_off_day, k.payment_due_day, k.created_at, k.updated_at
	FROM credit_expenses x
	JOIN categories c ON c.id = x.category_id
	JOIN cards k ON k.id = x.card_id
	WHERE x.owner_id = $1`

// CreateCreditExpense inserts a credit expense. Its category and card must
// already exist and its dates must already be derived.
func (r *Repository) CreateCreditExpense(ctx context.Context, e *model.CreditExpense) error {
	query := `
		INSERT INTO credit_expenses (
			id, owner_id, amount, effective_date, category_id, card_id,
			cut_off_date, payment_date, is_paid, created_at, updated_at
		)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.conn(ctx).Exec(ctx, query,
		e.ID,
		e.OwnerID,
		e.Amount.String(),
		e.EffectiveDate,
		e.Category.ID,
		e.Card.ID,
		e.CutOffDate,
		e.PaymentDate,
		e.IsPaid,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("failed to create credit expense: referenced category or card missing: %w", err)
		}
		return fmt.Errorf("failed to create credit expense: %w", err)
	}

	return nil
}

// GetCreditExpenseByID retrieves one of the owner's credit expenses with its
// category and card.
func (r *Repository) GetCreditExpenseByID(ctx context.Context, ownerID, id string) (*model.CreditExpense, error) {
	return scanCreditExpense(r.conn(ctx).QueryRow(ctx, creditExpenseSelect+` AND x.id = $2`, ownerID, id))
}

// ListCreditExpenses returns a page of the owner's credit expenses, newest first.
func (r *Repository) ListCreditExpenses(ctx context.Context, page Page) ([]*model.CreditExpense, string, error) {
	query, args, err := pageQuery(creditExpenseSelect, "x.id", page)
	if err != nil {
		return nil, "", err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list credit expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*model.CreditExpense
	for rows.Next() {
		e, err := scanCreditExpense(rows)
		if err != nil {
			return nil, "", err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating credit expenses: %w", err)
	}

	expenses, next := trimPage(expenses, page.Limit, func(e *model.CreditExpense) string { return e.ID })
	return expenses, next, nil
}

// UpdateCreditExpense stores every mutable field of a credit expense,
// including the derived dates.
func (r *Repository) UpdateCreditExpense(ctx context.Context, e *model.CreditExpense) error {
	query := `
		UPDATE credit_expenses
		SET amount = $3::numeric, effective_date = $4, category_id = $5, card_id = $6,
		    cut_off_date = $7, payment_date = $8, is_paid = $9, updated_at = $10
		WHERE owner_id = $1 AND id = $2
	`

	result, err := r.conn(ctx).Exec(ctx, query,
		e.OwnerID,
		e.ID,
		e.Amount.String(),
		e.EffectiveDate,
		e.Category.ID,
		e.Card.ID,
		e.CutOffDate,
		e.PaymentDate,
		e.IsPaid,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update credit expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCreditExpenseNotFound
	}

	return nil
}

// DeleteCreditExpense removes one of the owner's credit expenses.
func (r *Repository) DeleteCreditExpense(ctx context.Context, ownerID, id string) error {
	result, err := r.conn(ctx).Exec(ctx, `DELETE FROM credit_expenses WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete credit expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCreditExpenseNotFound
	}

	return nil
}

func scanCreditExpense(row pgx.Row) (*model.CreditExpense, error) {
	var e model.CreditExpense
	var amount string

	err := row.Scan(
		&e.ID, &e.OwnerID, &amount, &e.EffectiveDate, &e.CutOffDate, &e.PaymentDate,
		&e.IsPaid, &e.CreatedAt, &e.UpdatedAt,
		&e.Category.ID, &e.Category.OwnerID, &e.Category.Name, &e.Category.CreatedAt, &e.Category.UpdatedAt,
		&e.Card.ID, &e.Card.OwnerID, &e.Card.Name, &e.Card.CutOffDay, &e.Card.PaymentDueDay,
		&e.Card.CreatedAt, &e.Card.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCreditExpenseNotFound
		}
		return nil, fmt.Errorf("failed to scan credit expense: %w", err)
	}

	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse credit expense amount %q: %w", amount, err)
	}

	return &e, nil
}
