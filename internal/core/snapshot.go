package core

import (
	"maps"
	"slices"
)

// Snapshot is the read-only view of the ledger handed to the engine. Stores
// build a fresh one per read; callers must not mutate it.
type Snapshot struct {
	Incomes           []Transaction
	Expenses          []Transaction
	RecurringIncomes  []RecurringDefinition
	RecurringExpenses []RecurringDefinition
	Budget            BudgetLimits
	Goals             []Goal
	Categories        []string
}

// Clone returns a deep copy of s with non-nil collections.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Incomes:           append([]Transaction{}, s.Incomes...),
		Expenses:          append([]Transaction{}, s.Expenses...),
		RecurringIncomes:  append([]RecurringDefinition{}, s.RecurringIncomes...),
		RecurringExpenses: append([]RecurringDefinition{}, s.RecurringExpenses...),
		Budget:            BudgetLimits{},
		Goals:             append([]Goal{}, s.Goals...),
		Categories:        append([]string{}, s.Categories...),
	}
	maps.Copy(out.Budget, s.Budget)
	return out
}

// Recurring returns the definition with the given ID, searching both kinds.
func (s Snapshot) Recurring(id string) (RecurringDefinition, bool) {
	for _, defs := range [][]RecurringDefinition{s.RecurringIncomes, s.RecurringExpenses} {
		if i := slices.IndexFunc(defs, func(d RecurringDefinition) bool { return d.ID == id }); i >= 0 {
			return defs[i], true
		}
	}
	return RecurringDefinition{}, false
}

// IsEmpty reports whether the snapshot holds no ledger data at all.
func (s Snapshot) IsEmpty() bool {
	return len(s.Incomes) == 0 && len(s.Expenses) == 0 &&
		len(s.RecurringIncomes) == 0 && len(s.RecurringExpenses) == 0 &&
		len(s.Budget) == 0 && len(s.Goals) == 0
}
