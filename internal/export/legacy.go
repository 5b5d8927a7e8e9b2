package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
)

// ErrInvalidDataFile is returned when a data file cannot be decoded.
var ErrInvalidDataFile = errors.New("invalid data file")

// legacyFile is the JSON document saved by the desktop application.
// Amounts are plain numbers; records carry no identifiers.
type legacyFile struct {
	Incomes           []legacyTransaction        `json:"incomes"`
	Expenses          []legacyTransaction        `json:"expenses"`
	Budget            map[string]decimal.Decimal `json:"budget"`
	RecurringIncomes  []legacyRecurring          `json:"recurring_incomes"`
	RecurringExpenses []legacyRecurring          `json:"recurring_expenses"`
	Goals             []legacyGoal               `json:"goals"`
}

type legacyTransaction struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

type legacyRecurring struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	StartDate   string          `json:"start_date"`
	Frequency   string          `json:"frequency"`
	Repetitions int             `json:"repetitions"`
}

type legacyGoal struct {
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	DueDate       string          `json:"due_date"`
}

// ReadLegacy decodes a desktop data file into a snapshot. Every record gets
// a fresh ID and every recurring definition becomes monthly, the only
// frequency the file could hold. The first invalid record aborts the import.
func ReadLegacy(r io.Reader) (core.Snapshot, error) {
	var file legacyFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidDataFile, err)
	}

	snap := core.Snapshot{Budget: core.BudgetLimits{}}
	seen := map[string]bool{}
	addCategory := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			snap.Categories = append(snap.Categories, c)
		}
	}

	for i, in := range file.Incomes {
		tx, err := legacyToTransaction(core.Income, in)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("income %d: %w", i+1, err)
		}
		snap.Incomes = append(snap.Incomes, tx)
	}
	for i, in := range file.Expenses {
		tx, err := legacyToTransaction(core.Expense, in)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("expense %d: %w", i+1, err)
		}
		snap.Expenses = append(snap.Expenses, tx)
		addCategory(tx.Category)
	}
	for i, in := range file.RecurringIncomes {
		def, err := legacyToRecurring(core.Income, in)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("recurring income %d: %w", i+1, err)
		}
		snap.RecurringIncomes = append(snap.RecurringIncomes, def)
	}
	for i, in := range file.RecurringExpenses {
		def, err := legacyToRecurring(core.Expense, in)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("recurring expense %d: %w", i+1, err)
		}
		snap.RecurringExpenses = append(snap.RecurringExpenses, def)
		addCategory(def.Category)
	}
	for category, amount := range file.Budget {
		key := core.NormalizeCategory(category)
		if key == "" {
			return core.Snapshot{}, fmt.Errorf("budget: %w", core.ErrEmptyCategory)
		}
		limit, err := core.MoneyFromDecimal(amount)
		if err == nil {
			err = core.ValidateLimit(limit)
		}
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("budget %s: %w", key, err)
		}
		snap.Budget[key] = limit
		addCategory(key)
	}
	for i, in := range file.Goals {
		g, err := legacyToGoal(in)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("goal %d: %w", i+1, err)
		}
		for _, other := range snap.Goals {
			if other.SameName(g.Name) {
				return core.Snapshot{}, fmt.Errorf("goal %d: %w", i+1, core.ErrDuplicateGoal)
			}
		}
		snap.Goals = append(snap.Goals, g)
	}
	return snap, nil
}

func legacyToTransaction(kind core.Kind, in legacyTransaction) (core.Transaction, error) {
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.MoneyFromDecimal(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		ID:          uuid.NewString(),
		Kind:        kind,
		Date:        date,
		Description: in.Description,
		Amount:      amount,
		Origin:      core.OneTime,
	}
	if kind == core.Expense {
		tx.Category = core.NormalizeCategory(in.Category)
	}
	return tx, tx.Validate()
}

func legacyToRecurring(kind core.Kind, in legacyRecurring) (core.RecurringDefinition, error) {
	start, err := core.ParseDate(in.StartDate)
	if err != nil {
		return core.RecurringDefinition{}, err
	}
	amount, err := core.MoneyFromDecimal(in.Amount)
	if err != nil {
		return core.RecurringDefinition{}, err
	}
	def := core.RecurringDefinition{
		ID:          uuid.NewString(),
		Kind:        kind,
		StartDate:   start,
		Frequency:   core.Monthly,
		Repetitions: in.Repetitions,
		Description: in.Description,
		Amount:      amount,
	}
	if kind == core.Expense {
		def.Category = core.NormalizeCategory(in.Category)
	}
	return def, def.Validate()
}

func legacyToGoal(in legacyGoal) (core.Goal, error) {
	due, err := core.ParseDate(in.DueDate)
	if err != nil {
		return core.Goal{}, err
	}
	target, err := core.MoneyFromDecimal(in.TargetAmount)
	if err != nil {
		return core.Goal{}, err
	}
	current, err := core.MoneyFromDecimal(in.CurrentAmount)
	if err != nil {
		return core.Goal{}, err
	}
	g := core.Goal{
		ID:      uuid.NewString(),
		Name:    in.Name,
		Target:  target,
		Current: current,
		DueDate: due,
	}
	return g, g.Validate()
}
