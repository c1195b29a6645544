package service

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cardcycle/cardcycle/internal/model"
	"github.com/cardcycle/cardcycle/internal/repository"
)

// Transactor runs fn atomically. Store calls made with the context passed to fn
// take part in the same unit of work.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CategoryStore persists categories. Lookups are always scoped to an owner.
type CategoryStore interface {
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategoryByID(ctx context.Context, ownerID, id string) (*model.Category, error)
	GetCategoryByName(ctx context.Context, ownerID, name string) (*model.Category, error)
	ListCategories(ctx context.Context, page repository.Page) ([]*model.Category, string, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, ownerID, id string) error
}

// CardStore persists cards.
type CardStore interface {
	CreateCard(ctx context.Context, card *model.Card) error
	GetCardByID(ctx context.Context, ownerID, id string) (*model.Card, error)
	GetCardByName(ctx context.Context, ownerID, name string) (*model.Card, error)
	ListCards(ctx context.Context, page repository.Page) ([]*model.Card, string, error)
	UpdateCard(ctx context.Context, card *model.Card) error
	DeleteCard(ctx context.Context, ownerID, id string) error
}

// ExpenseStore persists plain expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense *model.Expense) error
	GetExpenseByID(ctx context.Context, ownerID, id string) (*model.Expense, error)
	ListExpenses(ctx context.Context, page repository.Page) ([]*model.Expense, string, error)
	UpdateExpense(ctx context.Context, expense *model.Expense) error
	DeleteExpense(ctx context.Context, ownerID, id string) error
}

// CreditExpenseStore persists credit expenses.
type CreditExpenseStore interface {
	CreateCreditExpense(ctx context.Context, expense *model.CreditExpense) error
	GetCreditExpenseByID(ctx context.Context, ownerID, id string) (*model.CreditExpense, error)
	ListCreditExpenses(ctx context.Context, page repository.Page) ([]*model.CreditExpense, string, error)
	UpdateCreditExpense(ctx context.Context, expense *model.CreditExpense) error
	DeleteCreditExpense(ctx context.Context, ownerID, id string) error
}

// Store is the persistence collaborator of every service.
// repository.Repository implements it on PostgreSQL.
type Store interface {
	Transactor
	CategoryStore
	CardStore
	ExpenseStore
	CreditExpenseStore
}

var _ Store = (*repository.Repository)(nil)

// ListInput selects one page of an owner's records.
type ListInput struct {
	OwnerID string
	Cursor  string
	Limit   int
}

func (in ListInput) page() repository.Page {
	return repository.Page{OwnerID: in.OwnerID, Cursor: in.Cursor, Limit: in.Limit}.Normalize()
}

// ListOutput is one page of results.
type ListOutput[T any] struct {
	Items      []T
	NextCursor string
	HasMore    bool
}

func newListOutput[T any](items []T, next string) *ListOutput[T] {
	if items == nil {
		items = []T{}
	}
	return &ListOutput[T]{Items: items, NextCursor: next, HasMore: next != ""}
}

func newID() string {
	return ulid.Make().String()
}

func now() time.Time {
	return time.Now().UTC()
}
