package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"bilancio/internal/core"
)

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir)
	snap, _ := s.Snapshot(context.Background())
	if len(snap.Categories) != len(DefaultCategories) {
		t.Fatalf("expected defaults when files missing, got %v", snap.Categories)
	}

	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte("# header\nRent\nfood\nFood\n\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFiles(dir)
	snap, _ = s.Snapshot(context.Background())
	if len(snap.Categories) != 2 || snap.Categories[0] != "food" || snap.Categories[1] != "rent" {
		t.Fatalf("unexpected categories: %v", snap.Categories)
	}
}

func TestTransactionsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	tx := core.Transaction{ID: "t1", Kind: core.Expense, Date: core.NewDate(2025, 1, 2), Description: "bread", Amount: core.Money{Cents: 250}, Category: "food"}
	if err := s.AddTransaction(ctx, tx); err != nil {
		t.Fatal(err)
	}

	tx.Kind = core.Income
	tx.Category = ""
	if err := s.UpdateTransaction(ctx, tx); err != nil {
		t.Fatal(err)
	}
	snap, _ := s.Snapshot(ctx)
	if len(snap.Expenses) != 0 || len(snap.Incomes) != 1 {
		t.Fatalf("kind change not applied: %+v", snap)
	}

	if err := s.DeleteTransaction(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteTransaction(ctx, "t1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	if err := s.UpdateTransaction(ctx, tx); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestKindChangeKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	tx := func(id string, kind core.Kind) core.Transaction {
		return core.Transaction{ID: id, Kind: kind, Date: core.NewDate(2025, 1, 1), Description: id, Amount: core.Money{Cents: 100}}
	}
	def := func(id string, kind core.Kind) core.RecurringDefinition {
		return core.RecurringDefinition{ID: id, Kind: kind, StartDate: core.NewDate(2025, 1, 1), Frequency: core.Monthly, Repetitions: 2, Description: id, Amount: core.Money{Cents: 100}}
	}
	for _, x := range []core.Transaction{tx("a", core.Income), tx("b", core.Expense), tx("c", core.Expense)} {
		_ = s.AddTransaction(ctx, x)
	}
	for _, d := range []core.RecurringDefinition{def("r1", core.Income), def("r2", core.Expense)} {
		_ = s.AddRecurring(ctx, d)
	}

	if err := s.UpdateTransaction(ctx, tx("a", core.Expense)); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateRecurring(ctx, def("r1", core.Expense)); err != nil {
		t.Fatal(err)
	}

	snap, _ := s.Snapshot(ctx)
	var ids []string
	for _, e := range snap.Expenses {
		ids = append(ids, e.ID)
	}
	if !slices.Equal(ids, []string{"a", "b", "c"}) {
		t.Errorf("expense order = %v", ids)
	}
	if len(snap.RecurringIncomes) != 0 || len(snap.RecurringExpenses) != 2 || snap.RecurringExpenses[0].ID != "r1" {
		t.Errorf("recurring = %+v", snap.RecurringExpenses)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	_ = s.SetBudget(ctx, " Food ", core.Money{Cents: 100})
	_ = s.AddRecurring(ctx, core.RecurringDefinition{ID: "r1", Kind: core.Income})

	snap, _ := s.Snapshot(ctx)
	snap.Budget["food"] = core.Money{Cents: 1}
	snap.RecurringIncomes[0].ID = "changed"

	again, _ := s.Snapshot(ctx)
	if again.Budget["food"].Cents != 100 || again.RecurringIncomes[0].ID != "r1" {
		t.Fatalf("store state leaked through snapshot: %+v", again)
	}
}

func TestBudgetAndCategories(t *testing.T) {
	ctx := context.Background()
	s := New([]string{"food"})
	_ = s.SetBudget(ctx, "Food", core.Money{Cents: 100})
	_ = s.SetBudget(ctx, "food", core.Money{Cents: 300})
	snap, _ := s.Snapshot(ctx)
	if len(snap.Budget) != 1 || snap.Budget["food"].Cents != 300 {
		t.Fatalf("last write should win: %v", snap.Budget)
	}
	if err := s.DeleteBudget(ctx, "travel"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v", err)
	}

	if err := s.AddCategory(ctx, "FOOD"); !errors.Is(err, core.ErrDuplicateCategory) {
		t.Fatalf("got %v, want ErrDuplicateCategory", err)
	}
	if err := s.AddCategory(ctx, "Books"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteCategory(ctx, "food"); err != nil {
		t.Fatal(err)
	}
	snap, _ = s.Snapshot(ctx)
	if len(snap.Categories) != 1 || snap.Categories[0] != "books" {
		t.Fatalf("got %v", snap.Categories)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s := New([]string{"food"})
	_ = s.AddGoal(ctx, core.Goal{ID: "g"})
	_ = s.SetBudget(ctx, "food", core.Money{Cents: 1})
	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	snap, _ := s.Snapshot(ctx)
	if !snap.IsEmpty() {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	if len(snap.Categories) != 1 {
		t.Fatal("categories should survive clear")
	}
}
