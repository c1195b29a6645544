package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/cardcycle/cardcycle/internal/model"
)

// Common errors for expense repository operations.
var (
	ErrExpenseNotFound = errors.New("expense not found")
)

// Amounts cross the wire as text so NUMERIC keeps its exact scale.
const expenseSelect = `
	SELECT e.id, e.owner_id, e.amount::text, e.effective_date, e.created_at, e.updated_at,
	       c.id, c.owner_id, c.name, c.created_at, c.updated_at
	FROM expenses e
	JOIN categories c ON c.id = e.category_id
	WHERE e.owner_id = $1`

// CreateExpense inserts an expense. Its category must already exist.
func (r *Repository) CreateExpense(ctx context.Context, e *model.Expense) error {
	query := `
		INSERT INTO expenses (id, owner_id, amount, effective_date, category_id, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6, $7)
	`

	_, err := r.conn(ctx).Exec(ctx, query,
		e.ID,
		e.OwnerID,
		e.Amount.String(),
		e.EffectiveDate,
		e.Category.ID,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// GetExpenseByID retrieves one of the owner's expenses with its category.
func (r *Repository) GetExpenseByID(ctx context.Context, ownerID, id string) (*model.Expense, error) {
	return scanExpense(r.conn(ctx).QueryRow(ctx, expenseSelect+` AND e.id = $2`, ownerID, id))
}

// ListExpenses returns a page of the owner's expenses, newest first.
func (r *Repository) ListExpenses(ctx context.Context, page Page) ([]*model.Expense, string, error) {
	query, args, err := pageQuery(expenseSelect, "e.id", page)
	if err != nil {
		return nil, "", err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*model.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, "", err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating expenses: %w", err)
	}

	expenses, next := trimPage(expenses, page.Limit, func(e *model.Expense) string { return e.ID })
	return expenses, next, nil
}

// UpdateExpense stores every mutable field of an expense.
func (r *Repository) UpdateExpense(ctx context.Context, e *model.Expense) error {
	query := `
		UPDATE expenses
		SET amount = $3::numeric, effective_date = $4, category_id = $5, updated_at = $6
		WHERE owner_id = $1 AND id = $2
	`

	result, err := r.conn(ctx).Exec(ctx, query,
		e.OwnerID,
		e.ID,
		e.Amount.String(),
		e.EffectiveDate,
		e.Category.ID,
		e.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to update expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// DeleteExpense removes one of the owner's expenses.
func (r *Repository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	result, err := r.conn(ctx).Exec(ctx, `DELETE FROM expenses WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

func scanExpense(row pgx.Row) (*model.Expense, error) {
	var e model.Expense
	var amount string

	err := row.Scan(
		&e.ID, &e.OwnerID, &amount, &e.EffectiveDate, &e.CreatedAt, &e.UpdatedAt,
		&e.Category.ID, &e.Category.OwnerID, &e.Category.Name, &e.Category.CreatedAt, &e.Category.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("failed to parse expense amount %q: %w", amount, err)
	}

	return &e, nil
}
