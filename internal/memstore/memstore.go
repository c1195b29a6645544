// Package memstore is an in-memory implementation of the service store,
// used by unit tests and local development without PostgreSQL.
//
// Every operation is serialized. WithinTx holds the store for the whole
// callback and restores a snapshot when the callback fails, so it offers the
// same all-or-nothing behaviour as the PostgreSQL repository.
package memstore

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/cardcycle/cardcycle/internal/model"
	"github.com/cardcycle/cardcycle/internal/repository"
)

type txKey struct{}

// Store keeps every record in maps keyed by id.
type Store struct {
	mu sync.Mutex

	categories     map[string]model.Category
	cards          map[string]model.Card
	expenses       map[string]model.Expense
	creditExpenses map[string]model.CreditExpense
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		categories:     make(map[string]model.Category),
		cards:          make(map[string]model.Card),
		expenses:       make(map[string]model.Expense),
		creditExpenses: make(map[string]model.CreditExpense),
	}
}

type snapshot struct {
	categories     map[string]model.Category
	cards          map[string]model.Card
	expenses       map[string]model.Expense
	creditExpenses map[string]model.CreditExpense
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		categories:     maps.Clone(s.categories),
		cards:          maps.Clone(s.cards),
		expenses:       maps.Clone(s.expenses),
		creditExpenses: maps.Clone(s.creditExpenses),
	}
}

func (s *Store) restore(snap snapshot) {
	s.categories = snap.categories
	s.cards = snap.cards
	s.expenses = snap.expenses
	s.creditExpenses = snap.creditExpenses
}

// WithinTx runs fn with exclusive access to the store and rolls every change
// back when fn returns an error. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// lock serializes a single operation unless ctx already owns the store.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// ============================================================================
// Categories
// ============================================================================

// CreateCategory inserts a category, reporting repository.ErrCategoryExists
// when the owner already has one with that name.
func (s *Store) CreateCategory(ctx context.Context, category *model.Category) error {
	defer s.lock(ctx)()

	if _, ok := s.categoryByName(category.OwnerID, category.Name); ok {
		return repository.ErrCategoryExists
	}
	s.categories[category.ID] = *category
	return nil
}

// GetCategoryByID retrieves one of the owner's categories.
func (s *Store) GetCategoryByID(ctx context.Context, ownerID, id string) (*model.Category, error) {
	defer s.lock(ctx)()

	c, ok := s.categories[id]
	if !ok || c.OwnerID != ownerID {
		return nil, repository.ErrCategoryNotFound
	}
	return &c, nil
}

// GetCategoryByName retrieves the owner's category with an exact name match.
func (s *Store) GetCategoryByName(ctx context.Context, ownerID, name string) (*model.Category, error) {
	defer s.lock(ctx)()

	c, ok := s.categoryByName(ownerID, name)
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return &c, nil
}

// ListCategories returns a page of the owner's categories, newest first.
func (s *Store) ListCategories(ctx context.Context, page repository.Page) ([]*model.Category, string, error) {
	defer s.lock(ctx)()

	return paginate(s.categories, page,
		func(c model.Category) string { return c.OwnerID },
		func(c model.Category) string { return c.ID },
		func(c model.Category) *model.Category { return &c },
	)
}

// UpdateCategory renames a category.
func (s *Store) UpdateCategory(ctx context.Context, category *model.Category) error {
	defer s.lock(ctx)()

	current, ok := s.categories[category.ID]
	if !ok || current.OwnerID != category.OwnerID {
		return repository.ErrCategoryNotFound
	}
	if other, ok := s.categoryByName(category.OwnerID, category.Name); ok && other.ID != category.ID {
		return repository.ErrCategoryExists
	}
	s.categories[category.ID] = *category
	return nil
}

// DeleteCategory removes a category no expense references.
func (s *Store) DeleteCategory(ctx context.Context, ownerID, id string) error {
	defer s.lock(ctx)()

	c, ok := s.categories[id]
	if !ok || c.OwnerID != ownerID {
		return repository.ErrCategoryNotFound
	}
	for _, e := range s.expenses {
		if e.Category.ID == id {
			return repository.ErrCategoryInUse
		}
	}
	for _, e := range s.creditExpenses {
		if e.Category.ID == id {
			return repository.ErrCategoryInUse
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) categoryByName(ownerID, name string) (model.Category, bool) {
	for _, c := range s.categories {
		if c.OwnerID == ownerID && c.Name == name {
			return c, true
		}
	}
	return model.Category{}, false
}

// ============================================================================
// Cards
// ============================================================================

// CreateCard inserts a card.
func (s *Store) CreateCard(ctx context.Context, card *model.Card) error {
	defer s.lock(ctx)()

	if _, ok := s.cardByName(card.OwnerID, card.Name); ok {
		return repository.ErrCardExists
	}
	s.cards[card.ID] = *card
	return nil
}

// GetCardByID retrieves one of the owner's cards.
func (s *Store) GetCardByID(ctx context.Context, ownerID, id string) (*model.Card, error) {
	defer s.lock(ctx)()

	c, ok := s.cards[id]
	if !ok || c.OwnerID != ownerID {
		return nil, repository.ErrCardNotFound
	}
	return &c, nil
}

// GetCardByName retrieves the owner's card with an exact name match.
func (s *Store) GetCardByName(ctx context.Context, ownerID, name string) (*model.Card, error) {
	defer s.lock(ctx)()

	c, ok := s.cardByName(ownerID, name)
	if !ok {
		return nil, repository.ErrCardNotFound
	}
	return &c, nil
}

// ListCards returns a page of the owner's cards, newest first.
func (s *Store) ListCards(ctx context.Context, page repository.Page) ([]*model.Card, string, error) {
	defer s.lock(ctx)()

	return paginate(s.cards, page,
		func(c model.Card) string { return c.OwnerID },
		func(c model.Card) string { return c.ID },
		func(c model.Card) *model.Card { return &c },
	)
}

// UpdateCard stores a card's name and cycle days.
func (s *Store) UpdateCard(ctx context.Context, card *model.Card) error {
	defer s.lock(ctx)()

	current, ok := s.cards[card.ID]
	if !ok || current.OwnerID != card.OwnerID {
		return repository.ErrCardNotFound
	}
	if other, ok := s.cardByName(card.OwnerID, card.Name); ok && other.ID != card.ID {
		return repository.ErrCardExists
	}
	s.cards[card.ID] = *card
	return nil
}

// DeleteCard removes a card no credit expense references.
func (s *Store) DeleteCard(ctx context.Context, ownerID, id string) error {
	defer s.lock(ctx)()

	c, ok := s.cards[id]
	if !ok || c.OwnerID != ownerID {
		return repository.ErrCardNotFound
	}
	for _, e := range s.creditExpenses {
		if e.Card.ID == id {
			return repository.ErrCardInUse
		}
	}
	delete(s.cards, id)
	return nil
}

func (s *Store) cardByName(ownerID, name string) (model.Card, bool) {
	for _, c := range s.cards {
		if c.OwnerID == ownerID && c.Name == name {
			return c, true
		}
	}
	return model.Card{}, false
}

// ============================================================================
// Expenses
// ============================================================================

// CreateExpense inserts an expense whose category must exist.
func (s *Store) CreateExpense(ctx context.Context, expense *model.Expense) error {
	defer s.lock(ctx)()

	if _, ok := s.categories[expense.Category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	s.expenses[expense.ID] = *expense
	return nil
}

// GetExpenseByID retrieves one of the owner's expenses with its current category.
func (s *Store) GetExpenseByID(ctx context.Context, ownerID, id string) (*model.Expense, error) {
	defer s.lock(ctx)()

	e, ok := s.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return nil, repository.ErrExpenseNotFound
	}
	return s.hydrateExpense(e), nil
}

// ListExpenses returns a page of the owner's expenses, newest first.
func (s *Store) ListExpenses(ctx context.Context, page repository.Page) ([]*model.Expense, string, error) {
	defer s.lock(ctx)()

	return paginate(s.expenses, page,
		func(e model.Expense) string { return e.OwnerID },
		func(e model.Expense) string { return e.ID },
		s.hydrateExpense,
	)
}

// UpdateExpense stores every mutable field of an expense.
func (s *Store) UpdateExpense(ctx context.Context, expense *model.Expense) error {
	defer s.lock(ctx)()

	current, ok := s.expenses[expense.ID]
	if !ok || current.OwnerID != expense.OwnerID {
		return repository.ErrExpenseNotFound
	}
	if _, ok := s.categories[expense.Category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	s.expenses[expense.ID] = *expense
	return nil
}

// DeleteExpense removes one of the owner's expenses.
func (s *Store) DeleteExpense(ctx context.Context, ownerID, id string) error {
	defer s.lock(ctx)()

	e, ok := s.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return repository.ErrExpenseNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) hydrateExpense(e model.Expense) *model.Expense {
	if c, ok := s.categories[e.Category.ID]; ok {
		e.Category = c
	}
	return &e
}

// ============================================================================
// Credit expenses
// ============================================================================

// CreateCreditExpense inserts a credit expense whose category and card must exist.
func (s *Store) CreateCreditExpense(ctx context.Context, expense *model.CreditExpense) error {
	defer s.lock(ctx)()

	if err := s.checkCreditRefs(expense); err != nil {
		return err
	}
	s.creditExpenses[expense.ID] = *expense
	return nil
}

// GetCreditExpenseByID retrieves one of the owner's credit expenses.
func (s *Store) GetCreditExpenseByID(ctx context.Context, ownerID, id string) (*model.CreditExpense, error) {
	defer s.lock(ctx)()

	e, ok := s.creditExpenses[id]
	if !ok || e.OwnerID != ownerID {
		return nil, repository.ErrCreditExpenseNotFound
	}
	return s.hydrateCreditExpense(e), nil
}

// ListCreditExpenses returns a page of the owner's credit expenses, newest first.
func (s *Store) ListCreditExpenses(ctx context.Context, page repository.Page) ([]*model.CreditExpense, string, error) {
	defer s.lock(ctx)()

	return paginate(s.creditExpenses, page,
		func(e model.CreditExpense) string { return e.OwnerID },
		func(e model.CreditExpense) string { return e.ID },
		s.hydrateCreditExpense,
	)
}

// UpdateCreditExpense stores every mutable field of a credit expense.
func (s *Store) UpdateCreditExpense(ctx context.Context, expense *model.CreditExpense) error {
	defer s.lock(ctx)()

	current, ok := s.creditExpenses[expense.ID]
	if !ok || current.OwnerID != expense.OwnerID {
		return repository.ErrCreditExpenseNotFound
	}
	if err := s.checkCreditRefs(expense); err != nil {
		return err
	}
	s.creditExpenses[expense.ID] = *expense
	return nil
}

// DeleteCreditExpense removes one of the owner's credit expenses.
func (s *Store) DeleteCreditExpense(ctx context.Context, ownerID, id string) error {
	defer s.lock(ctx)()

	e, ok := s.creditExpenses[id]
	if !ok || e.OwnerID != ownerID {
		return repository.ErrCreditExpenseNotFound
	}
	delete(s.creditExpenses, id)
	return nil
}

func (s *Store) checkCreditRefs(e *model.CreditExpense) error {
	if _, ok := s.categories[e.Category.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	if _, ok := s.cards[e.Card.ID]; !ok {
		return repository.ErrCardNotFound
	}
	return nil
}

func (s *Store) hydrateCreditExpense(e model.CreditExpense) *model.CreditExpense {
	if c, ok := s.categories[e.Category.ID]; ok {
		e.Category = c
	}
	if c, ok := s.cards[e.Card.ID]; ok {
		e.Card = c
	}
	return &e
}

// ============================================================================
// Counters for assertions
// ============================================================================

// CategoryCount returns how many categories the owner has.
func (s *Store) CategoryCount(ownerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, c := range s.categories {
		if c.OwnerID == ownerID {
			n++
		}
	}
	return n
}

// CreditExpenseCount returns how many credit expenses the owner has.
func (s *Store) CreditExpenseCount(ownerID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.creditExpenses {
		if e.OwnerID == ownerID {
			n++
		}
	}
	return n
}

// paginate mirrors the repository's keyset pagination: owner filter, id
// descending, a cursor holding the last id of the previous page.
func paginate[T any, R any](rows map[string]T, page repository.Page, owner, id func(T) string, out func(T) *R) ([]*R, string, error) {
	page = page.Normalize()

	var after string
	if page.Cursor != "" {
		cursor, err := repository.DecodeCursor(page.Cursor)
		if err != nil {
			return nil, "", err
		}
		after = cursor.ID
	}

	matched := make([]T, 0, len(rows))
	for _, row := range rows {
		if owner(row) != page.OwnerID {
			continue
		}
		if after != "" && id(row) >= after {
			continue
		}
		matched = append(matched, row)
	}
	slices.SortFunc(matched, func(a, b T) int { return strings.Compare(id(b), id(a)) })

	var next string
	if len(matched) > page.Limit {
		matched = matched[:page.Limit]
		next = repository.EncodeCursor(repository.PaginationCursor{ID: id(matched[len(matched)-1])})
	}

	items := make([]*R, 0, len(matched))
	for _, row := range matched {
		items = append(items, out(row))
	}
	return items, next, nil
}
