// Package ledger declares the persistence ports the services depend on.
// Every backend (memory, SQLite, MongoDB) implements Store.
package ledger

import (
	"context"
	"errors"

	"bilancio/internal/core"
)

type (
	// SnapshotReader returns an immutable copy of the whole ledger.
	SnapshotReader interface {
		Snapshot(ctx context.Context) (core.Snapshot, error)
	}

	// TransactionStore persists one-time incomes and expenses. Snapshot lists
	// them in insertion order; an update, even one that changes the kind,
	// keeps the record at its original position. Update and Delete return
	// core.ErrNotFound for unknown IDs.
	TransactionStore interface {
		AddTransaction(ctx context.Context, tx core.Transaction) error
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	// RecurringStore persists recurring definitions, never their occurrences.
	// Ordering follows the TransactionStore rule: insertion order, kept
	// across updates.
	RecurringStore interface {
		AddRecurring(ctx context.Context, def core.RecurringDefinition) error
		UpdateRecurring(ctx context.Context, def core.RecurringDefinition) error
		DeleteRecurring(ctx context.Context, id string) error
	}

	// BudgetStore keeps one limit per normalized category, last write wins.
	BudgetStore interface {
		SetBudget(ctx context.Context, category string, limit core.Money) error
		DeleteBudget(ctx context.Context, category string) error
	}

	GoalStore interface {
		AddGoal(ctx context.Context, g core.Goal) error
		UpdateGoal(ctx context.Context, g core.Goal) error
		DeleteGoal(ctx context.Context, id string) error
	}

	// CategoryStore is the registry of known expense categories. Adding an
	// existing category returns core.ErrDuplicateCategory.
	CategoryStore interface {
		AddCategory(ctx context.Context, name string) error
		DeleteCategory(ctx context.Context, name string) error
	}

	// Clearer wipes every record.
	Clearer interface {
		Clear(ctx context.Context) error
	}

	Store interface {
		SnapshotReader
		TransactionStore
		RecurringStore
		BudgetStore
		GoalStore
		CategoryStore
		Clearer
		Close() error
	}
)

// Replace swaps the whole content of s with snap. Used by imports.
func Replace(ctx context.Context, s Store, snap core.Snapshot) error {
	if err := s.Clear(ctx); err != nil {
		return err
	}
	for _, tx := range snap.Incomes {
		if err := s.AddTransaction(ctx, tx); err != nil {
			return err
		}
	}
	for _, tx := range snap.Expenses {
		if err := s.AddTransaction(ctx, tx); err != nil {
			return err
		}
	}
	for _, def := range snap.RecurringIncomes {
		if err := s.AddRecurring(ctx, def); err != nil {
			return err
		}
	}
	for _, def := range snap.RecurringExpenses {
		if err := s.AddRecurring(ctx, def); err != nil {
			return err
		}
	}
	for category, limit := range snap.Budget {
		if err := s.SetBudget(ctx, category, limit); err != nil {
			return err
		}
	}
	for _, g := range snap.Goals {
		if err := s.AddGoal(ctx, g); err != nil {
			return err
		}
	}
	for _, c := range snap.Categories {
		if err := s.AddCategory(ctx, c); err != nil && !errors.Is(err, core.ErrDuplicateCategory) {
			return err
		}
	}
	return nil
}
