package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cardcycle/cardcycle/internal/model"
	"github.com/cardcycle/cardcycle/internal/repository"
	"github.com/cardcycle/cardcycle/internal/service"
)

var _ service.Store = (*Store)(nil)

func newCategory(owner, name string) *model.Category {
	return &model.Category{ID: ulid.Make().String(), OwnerID: owner, Name: name, CreatedAt: time.Now()}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.CreateCategory(ctx, newCategory("u1", "food")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithinTx error = %v, want boom", err)
	}

	if n := s.CategoryCount("u1"); n != 0 {
		t.Errorf("CategoryCount = %d after rollback, want 0", n)
	}
}

func TestWithinTx_CommitsAndNests(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		return s.WithinTx(ctx, func(ctx context.Context) error {
			return s.CreateCategory(ctx, newCategory("u1", "food"))
		})
	})
	if err != nil {
		t.Fatalf("WithinTx failed: %v", err)
	}

	if _, err := s.GetCategoryByName(ctx, "u1", "food"); err != nil {
		t.Errorf("GetCategoryByName failed: %v", err)
	}
}

func TestCreateCategory_UniquePerOwner(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.CreateCategory(ctx, newCategory("u1", "food")); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := s.CreateCategory(ctx, newCategory("u1", "food")); !errors.Is(err, repository.ErrCategoryExists) {
		t.Errorf("duplicate: got %v, want ErrCategoryExists", err)
	}
	if err := s.CreateCategory(ctx, newCategory("u2", "food")); err != nil {
		t.Errorf("other owner: got %v", err)
	}
}

func TestListCategories_Paginates(t *testing.T) {
	s := New()
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		c := newCategory("u1", name)
		ids = append(ids, c.ID)
		if err := s.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory failed: %v", err)
		}
	}
	_ = s.CreateCategory(ctx, newCategory("u2", "x"))

	page, next, err := s.ListCategories(ctx, repository.Page{OwnerID: "u1", Limit: 2})
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}
	if len(page) != 2 || page[0].ID != ids[2] || next == "" {
		t.Fatalf("first page mismatch: %d items, next %q", len(page), next)
	}

	page, next, err = s.ListCategories(ctx, repository.Page{OwnerID: "u1", Limit: 2, Cursor: next})
	if err != nil {
		t.Fatalf("ListCategories (page 2) failed: %v", err)
	}
	if len(page) != 1 || page[0].ID != ids[0] || next != "" {
		t.Errorf("second page mismatch: %d items, next %q", len(page), next)
	}
}

func TestDeleteCard_InUse(t *testing.T) {
	s := New()
	ctx := context.Background()

	category := newCategory("u1", "food")
	card := &model.Card{ID: ulid.Make().String(), OwnerID: "u1", Name: "visa", CutOffDay: 28, PaymentDueDay: 12}
	_ = s.CreateCategory(ctx, category)
	_ = s.CreateCard(ctx, card)

	expense := &model.CreditExpense{ID: ulid.Make().String(), OwnerID: "u1", Category: *category, Card: *card}
	if err := s.CreateCreditExpense(ctx, expense); err != nil {
		t.Fatalf("CreateCreditExpense failed: %v", err)
	}

	if err := s.DeleteCard(ctx, "u1", card.ID); !errors.Is(err, repository.ErrCardInUse) {
		t.Errorf("DeleteCard = %v, want ErrCardInUse", err)
	}
	if err := s.DeleteCategory(ctx, "u1", category.ID); !errors.Is(err, repository.ErrCategoryInUse) {
		t.Errorf("DeleteCategory = %v, want ErrCategoryInUse", err)
	}
	if _, err := s.GetCreditExpenseByID(ctx, "u2", expense.ID); !errors.Is(err, repository.ErrCreditExpenseNotFound) {
		t.Errorf("other owner lookup = %v, want ErrCreditExpenseNotFound", err)
	}
}
