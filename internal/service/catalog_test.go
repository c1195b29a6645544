package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardcycle/cardcycle/internal/billing"
	"github.com/cardcycle/cardcycle/internal/memstore"
	"github.com/cardcycle/cardcycle/internal/metrics"
	"github.com/cardcycle/cardcycle/internal/service"
)

func TestCategoryService_CreateAndGetOrCreate(t *testing.T) {
	ctx := context.Background()
	recorder := metrics.NewInMemory()
	svc := service.NewCategoryService(memstore.New(), recorder)

	created, err := svc.Create(ctx, alice, " food ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Name != "food" {
		t.Errorf("name = %q, want trimmed", created.Name)
	}

	if _, err := svc.Create(ctx, alice, "food"); !errors.Is(err, service.ErrCategoryExists) {
		t.Errorf("duplicate Create error = %v, want ErrCategoryExists", err)
	}

	resolved, err := svc.GetOrCreate(ctx, alice, "food")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if resolved.ID != created.ID {
		t.Errorf("GetOrCreate returned %s, want %s", resolved.ID, created.ID)
	}

	other, err := svc.GetOrCreate(ctx, bob, "food")
	if err != nil {
		t.Fatalf("GetOrCreate for bob failed: %v", err)
	}
	if other.ID == created.ID {
		t.Error("owners must not share categories")
	}

	if _, err := svc.Get(ctx, bob, created.ID); !errors.Is(err, service.ErrCategoryNotFound) {
		t.Errorf("cross-owner Get error = %v, want ErrCategoryNotFound", err)
	}

	snap := recorder.Snapshot()
	if snap.Created[metrics.KindCategory] != 1 || snap.CategoriesAutoCreated != 1 {
		t.Errorf("unexpected metrics: %+v", snap)
	}
}

func TestCategoryService_InvalidNames(t *testing.T) {
	svc := service.NewCategoryService(memstore.New(), nil)

	for _, name := range []string{"", "   ", strings.Repeat("x", 51)} {
		if _, err := svc.Create(context.Background(), alice, name); !errors.Is(err, service.ErrInvalidName) {
			t.Errorf("Create(%q) error = %v, want ErrInvalidName", name, err)
		}
	}

	if _, err := svc.Create(context.Background(), alice, strings.Repeat("é", 50)); err != nil {
		t.Errorf("50 runes should be accepted: %v", err)
	}
}

func TestCategoryService_RenameAndDelete(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	categories := service.NewCategoryService(store, nil)
	expenses := service.NewExpenseService(store, nil)

	food, _ := categories.Create(ctx, alice, "food")
	if _, err := categories.Create(ctx, alice, "travel"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := categories.Rename(ctx, alice, food.ID, "travel"); !errors.Is(err, service.ErrCategoryExists) {
		t.Errorf("rename onto existing name error = %v, want ErrCategoryExists", err)
	}

	renamed, err := categories.Rename(ctx, alice, food.ID, "groceries")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if renamed.Name != "groceries" {
		t.Errorf("name = %q", renamed.Name)
	}

	if _, err := expenses.Create(ctx, service.CreateExpenseInput{
		OwnerID:       alice,
		Amount:        decimal.NewFromInt(3),
		EffectiveDate: date(2024, 1, 2),
		CategoryName:  "groceries",
	}); err != nil {
		t.Fatalf("expense Create failed: %v", err)
	}

	if err := categories.Delete(ctx, alice, food.ID); !errors.Is(err, service.ErrCategoryInUse) {
		t.Errorf("Delete error = %v, want ErrCategoryInUse", err)
	}
}

func TestCardService_Lifecycle(t *testing.T) {
	env := newTestEnv(t, billing.Clamp)

	if _, err := env.cards.Create(env.ctx, service.CreateCardInput{OwnerID: alice, Name: "visa", CutOffDay: 0, PaymentDueDay: 12}); !errors.Is(err, service.ErrInvalidCycleDay) {
		t.Errorf("cut-off 0 error = %v, want ErrInvalidCycleDay", err)
	}
	if _, err := env.cards.Create(env.ctx, service.CreateCardInput{OwnerID: alice, Name: "visa", CutOffDay: 28, PaymentDueDay: 31}); !errors.Is(err, service.ErrInvalidCycleDay) {
		t.Errorf("payment 31 error = %v, want ErrInvalidCycleDay", err)
	}

	card := env.card(t, alice, "visa", 28, 12)
	if _, err := env.cards.Create(env.ctx, service.CreateCardInput{OwnerID: alice, Name: "visa", CutOffDay: 1, PaymentDueDay: 2}); !errors.Is(err, service.ErrCardExists) {
		t.Errorf("duplicate error = %v, want ErrCardExists", err)
	}

	found, err := env.cards.FindByName(env.ctx, alice, " visa")
	if err != nil || found.ID != card.ID {
		t.Fatalf("FindByName = %v, %v", found, err)
	}
	if _, err := env.cards.FindByName(env.ctx, bob, "visa"); !errors.Is(err, service.ErrCardNotFound) {
		t.Errorf("cross-owner FindByName error = %v, want ErrCardNotFound", err)
	}

	expense := env.create(t, alice, "food", "visa", date(2023, 11, 1))

	updated, err := env.cards.Update(env.ctx, alice, card.ID, service.UpdateCardInput{CutOffDay: ptr(5)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.CutOffDay != 5 || updated.PaymentDueDay != 12 {
		t.Errorf("updated card = %+v", updated)
	}
	if _, err := env.cards.Update(env.ctx, alice, card.ID, service.UpdateCardInput{PaymentDueDay: ptr(31)}); !errors.Is(err, service.ErrInvalidCycleDay) {
		t.Errorf("invalid update error = %v, want ErrInvalidCycleDay", err)
	}

	stored, err := env.credit.Get(env.ctx, alice, expense.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !stored.CutOffDate.Equal(expense.CutOffDate) {
		t.Errorf("card update changed a derived date: %s", stored.CutOffDate.Format(time.DateOnly))
	}

	if err := env.cards.Delete(env.ctx, alice, card.ID); !errors.Is(err, service.ErrCardInUse) {
		t.Errorf("Delete error = %v, want ErrCardInUse", err)
	}
	if err := env.credit.Delete(env.ctx, alice, expense.ID); err != nil {
		t.Fatalf("credit Delete failed: %v", err)
	}
	if err := env.cards.Delete(env.ctx, alice, card.ID); err != nil {
		t.Errorf("Delete after clearing references failed: %v", err)
	}
}

func TestCardService_List(t *testing.T) {
	env := newTestEnv(t, billing.Clamp)
	env.card(t, alice, "a", 1, 2)
	env.card(t, alice, "b", 3, 4)
	env.card(t, bob, "c", 5, 6)

	out, err := env.cards.List(env.ctx, service.ListInput{OwnerID: alice})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 2 || out.HasMore || out.NextCursor != "" {
		t.Errorf("List = %d items, has more %v", len(out.Items), out.HasMore)
	}
	if out.Items[0].Name != "b" {
		t.Errorf("first item = %q, want newest", out.Items[0].Name)
	}
}

func TestExpenseService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	recorder := metrics.NewInMemory()
	svc := service.NewExpenseService(store, recorder)

	expense, err := svc.Create(ctx, service.CreateExpenseInput{
		OwnerID:       alice,
		Amount:        decimal.RequireFromString("12.30"),
		EffectiveDate: time.Date(2024, 5, 6, 13, 0, 0, 0, time.UTC),
		CategoryName:  "coffee",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !expense.EffectiveDate.Equal(date(2024, 5, 6)) || expense.Category.Name != "coffee" {
		t.Errorf("created expense = %+v", expense)
	}

	updated, err := svc.Update(ctx, alice, expense.ID, service.UpdateExpenseInput{
		CategoryName: ptr("tea"),
		Amount:       ptr(decimal.RequireFromString("4")),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Category.Name != "tea" || !updated.Amount.Equal(decimal.NewFromInt(4)) {
		t.Errorf("updated expense = %+v", updated)
	}
	if store.CategoryCount(alice) != 2 {
		t.Errorf("CategoryCount = %d, want 2", store.CategoryCount(alice))
	}

	if _, err := svc.Update(ctx, bob, expense.ID, service.UpdateExpenseInput{Amount: ptr(decimal.NewFromInt(1))}); !errors.Is(err, service.ErrExpenseNotFound) {
		t.Errorf("cross-owner Update error = %v, want ErrExpenseNotFound", err)
	}
	if _, err := svc.Update(ctx, alice, expense.ID, service.UpdateExpenseInput{Amount: ptr(decimal.NewFromInt(-1))}); !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("negative amount error = %v, want ErrInvalidAmount", err)
	}

	if err := svc.Delete(ctx, alice, expense.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, alice, expense.ID); !errors.Is(err, service.ErrExpenseNotFound) {
		t.Errorf("Get after delete error = %v, want ErrExpenseNotFound", err)
	}

	snap := recorder.Snapshot()
	if snap.Created[metrics.KindExpense] != 1 || snap.Updated[metrics.KindExpense] != 1 || snap.Deleted[metrics.KindExpense] != 1 {
		t.Errorf("unexpected metrics: %+v", snap)
	}
}
