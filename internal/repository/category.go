package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardcycle/cardcycle/internal/model"
)

// Common errors for category repository operations.
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrCategoryInUse    = errors.New("category is referenced by expenses")
)

const categoryColumns = `id, owner_id, name, created_at, updated_at`

// CreateCategory inserts a category. ErrCategoryExists is returned when the
// owner already has a category with the same name. The insert uses
// ON CONFLICT DO NOTHING so a lost race does not abort an enclosing transaction.
func (r *Repository) CreateCategory(ctx context.Context, category *model.Category) error {
	query := `
		INSERT INTO categories (id, owner_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_id, name) DO NOTHING
	`

	result, err := r.conn(ctx).Exec(ctx, query,
		category.ID,
		category.OwnerID,
		category.Name,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryExists
	}

	return nil
}

// GetCategoryByID retrieves one of the owner's categories.
func (r *Repository) GetCategoryByID(ctx context.Context, ownerID, id string) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE owner_id = $1 AND id = $2`
	return scanCategory(r.conn(ctx).QueryRow(ctx, query, ownerID, id))
}

// GetCategoryByName retrieves the owner's category with an exact name match.
func (r *Repository) GetCategoryByName(ctx context.Context, ownerID, name string) (*model.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE owner_id = $1 AND name = $2`
	return scanCategory(r.conn(ctx).QueryRow(ctx, query, ownerID, name))
}

// ListCategories returns a page of the owner's categories, newest first.
func (r *Repository) ListCategories(ctx context.Context, page Page) ([]*model.Category, string, error) {
	query, args, err := pageQuery(`SELECT `+categoryColumns+` FROM categories WHERE owner_id = $1`, "id", page)
	if err != nil {
		return nil, "", err
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*model.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, "", err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating categories: %w", err)
	}

	categories, next := trimPage(categories, page.Limit, func(c *model.Category) string { return c.ID })
	return categories, next, nil
}

// UpdateCategory renames a category.
func (r *Repository) UpdateCategory(ctx context.Context, category *model.Category) error {
	query := `
		UPDATE categories
		SET name = $3, updated_at = $4
		WHERE owner_id = $1 AND id = $2
	`

	result, err := r.conn(ctx).Exec(ctx, query, category.OwnerID, category.ID, category.Name, category.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCategoryExists
		}
		return fmt.Errorf("failed to update category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// DeleteCategory removes a category that no expense references.
func (r *Repository) DeleteCategory(ctx context.Context, ownerID, id string) error {
	result, err := r.conn(ctx).Exec(ctx, `DELETE FROM categories WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrCategoryInUse
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

func scanCategory(row pgx.Row) (*model.Category, error) {
	var c model.Category
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	return &c, nil
}
