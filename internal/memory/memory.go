// Package memory is the in-process ledger backend. Data lives only as long
// as the process.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"bilancio/internal/core"
)

// DefaultCategories seeds the registry when no seed file is found.
var DefaultCategories = []string{"food", "transport", "entertainment", "housing", "salary", "gifts"}

// Store keeps transactions and definitions of both kinds in one list each,
// in insertion order, and splits them by kind on Snapshot.
type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	recurring    []core.RecurringDefinition
	budget       core.BudgetLimits
	goals        []core.Goal
	categories   []string
}

func New(categories []string) *Store {
	return &Store{budget: core.BudgetLimits{}, categories: dedupeSorted(categories)}
}

// NewFromFiles seeds the category registry from base/seed_categories.txt.
func NewFromFiles(base string) *Store {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	if len(cats) == 0 {
		cats = DefaultCategories
	}
	return New(cats)
}

func (s *Store) Snapshot(_ context.Context) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := core.Snapshot{
		Budget:     s.budget,
		Goals:      s.goals,
		Categories: s.categories,
	}
	for _, tx := range s.transactions {
		if tx.Kind == core.Income {
			snap.Incomes = append(snap.Incomes, tx)
		} else {
			snap.Expenses = append(snap.Expenses, tx)
		}
	}
	for _, def := range s.recurring {
		if def.Kind == core.Income {
			snap.RecurringIncomes = append(snap.RecurringIncomes, def)
		} else {
			snap.RecurringExpenses = append(snap.RecurringExpenses, def)
		}
	}
	return snap.Clone(), nil
}

func (s *Store) AddTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, tx)
	return nil
}

// UpdateTransaction replaces the record in place, kind included.
func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.transactions, func(t core.Transaction) bool { return t.ID == tx.ID })
	if i < 0 {
		return core.ErrNotFound
	}
	s.transactions[i] = tx
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.transactions, func(t core.Transaction) bool { return t.ID == id })
	if i < 0 {
		return core.ErrNotFound
	}
	s.transactions = slices.Delete(s.transactions, i, i+1)
	return nil
}

func (s *Store) AddRecurring(_ context.Context, def core.RecurringDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring = append(s.recurring, def)
	return nil
}

func (s *Store) UpdateRecurring(_ context.Context, def core.RecurringDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.recurring, func(d core.RecurringDefinition) bool { return d.ID == def.ID })
	if i < 0 {
		return core.ErrNotFound
	}
	s.recurring[i] = def
	return nil
}

func (s *Store) DeleteRecurring(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.recurring, func(d core.RecurringDefinition) bool { return d.ID == id })
	if i < 0 {
		return core.ErrNotFound
	}
	s.recurring = slices.Delete(s.recurring, i, i+1)
	return nil
}

func (s *Store) SetBudget(_ context.Context, category string, limit core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget[core.NormalizeCategory(category)] = limit
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := core.NormalizeCategory(category)
	if _, ok := s.budget[key]; !ok {
		return core.ErrNotFound
	}
	delete(s.budget, key)
	return nil
}

func (s *Store) AddGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append(s.goals, g)
	return nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.goals, func(x core.Goal) bool { return x.ID == g.ID })
	if i < 0 {
		return core.ErrNotFound
	}
	s.goals[i] = g
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.goals, func(x core.Goal) bool { return x.ID == id })
	if i < 0 {
		return core.ErrNotFound
	}
	s.goals = slices.Delete(s.goals, i, i+1)
	return nil
}

func (s *Store) AddCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name = core.NormalizeCategory(name)
	if slices.Contains(s.categories, name) {
		return core.ErrDuplicateCategory
	}
	s.categories = dedupeSorted(append(s.categories, name))
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.Index(s.categories, core.NormalizeCategory(name))
	if i < 0 {
		return core.ErrNotFound
	}
	s.categories = slices.Delete(s.categories, i, i+1)
	return nil
}

// Clear drops every ledger record. The category registry survives.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = nil
	s.recurring = nil
	s.budget = core.BudgetLimits{}
	s.goals = nil
	return nil
}

func (s *Store) Close() error { return nil }

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupeSorted(out)
}

// dedupeSorted normalizes, dedupes and sorts category names.
func dedupeSorted(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = core.NormalizeCategory(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
