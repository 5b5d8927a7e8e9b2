package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bilancio/internal/core"
)

const legacyData = `{
    "incomes": [
        {"amount": 1500.0, "description": "Зарплата", "date": "2025-06-01"}
    ],
    "expenses": [
        {"amount": 12.345, "description": "Кофе", "category": "Еда", "date": "2025-06-03"}
    ],
    "budget": {"еда": 300.0, "Transport": 0},
    "recurring_incomes": [],
    "recurring_expenses": [
        {"amount": 700, "description": "Аренда", "category": "жильё", "start_date": "2025-05-01", "frequency": "Ежемесячно", "repetitions": 12}
    ],
    "goals": [
        {"name": "Отпуск", "target_amount": 2000, "current_amount": 500.5, "due_date": "2026-01-01"}
    ]
}`

func TestReadLegacy(t *testing.T) {
	snap, err := ReadLegacy(strings.NewReader(legacyData))
	if err != nil {
		t.Fatalf("ReadLegacy() error = %v", err)
	}

	if len(snap.Incomes) != 1 || snap.Incomes[0].Amount.Cents != 150000 || snap.Incomes[0].ID == "" {
		t.Errorf("got incomes %+v", snap.Incomes)
	}
	exp := snap.Expenses[0]
	if exp.Amount.Cents != 1235 || exp.Category != "еда" || exp.Origin != core.OneTime {
		t.Errorf("got expense %+v", exp)
	}
	def := snap.RecurringExpenses[0]
	if def.Frequency != core.Monthly || def.Repetitions != 12 || def.Amount.Cents != 70000 {
		t.Errorf("got recurring %+v", def)
	}
	if snap.Budget["еда"].Cents != 30000 {
		t.Errorf("got budget %v", snap.Budget)
	}
	if limit, ok := snap.Budget["transport"]; !ok || limit.Cents != 0 {
		t.Errorf("zero limit lost: %v", snap.Budget)
	}
	if g := snap.Goals[0]; g.Name != "Отпуск" || g.Current.Cents != 50050 || g.Target.Cents != 200000 {
		t.Errorf("got goal %+v", g)
	}
	if len(snap.Categories) != 3 {
		t.Errorf("got categories %v", snap.Categories)
	}
}

func TestReadLegacyRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"not json", `{"incomes": [`, ErrInvalidDataFile},
		{"bad date", `{"incomes": [{"amount": 1, "description": "x", "date": "06/01/2025"}]}`, core.ErrInvalidDate},
		{"zero amount", `{"expenses": [{"amount": 0, "description": "x", "category": "a", "date": "2025-01-01"}]}`, core.ErrInvalidAmount},
		{"no repetitions", `{"recurring_incomes": [{"amount": 1, "description": "x", "start_date": "2025-01-01", "repetitions": 0}]}`, core.ErrInvalidRepetitions},
		{"negative budget", `{"budget": {"food": -1}}`, core.ErrNegativeAmount},
		{"huge expense", `{"expenses": [{"amount": 1e20, "description": "x", "category": "a", "date": "2025-01-01"}]}`, core.ErrInvalidAmount},
		{"huge recurring", `{"recurring_expenses": [{"amount": 92233720368547758.08, "description": "x", "category": "a", "start_date": "2025-01-01", "repetitions": 1}]}`, core.ErrInvalidAmount},
		{"huge budget", `{"budget": {"food": 1e19}}`, core.ErrInvalidAmount},
		{"huge goal", `{"goals": [{"name": "Moon", "target_amount": 1e18, "current_amount": 0, "due_date": "2030-01-01"}]}`, core.ErrInvalidAmount},
		{"duplicate goal", `{"goals": [
			{"name": "Car", "target_amount": 1, "current_amount": 0, "due_date": "2025-01-01"},
			{"name": "car", "target_amount": 1, "current_amount": 0, "due_date": "2025-01-01"}]}`, core.ErrDuplicateGoal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadLegacy(strings.NewReader(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWriteTransactions(t *testing.T) {
	txs := []core.Transaction{
		{ID: "e1", Kind: core.Expense, Date: core.NewDate(2025, 3, 1), Description: "Lunch, with friends", Amount: core.Money{Cents: 1250}, Category: "food"},
		{ID: "rent#0", Kind: core.Expense, Date: core.NewDate(2025, 3, 2), Description: "Rent", Amount: core.Money{Cents: 90000}, Category: "housing", Origin: core.RecurringDerived, SourceID: "rent"},
	}
	var buf bytes.Buffer
	if err := WriteTransactions(&buf, txs); err != nil {
		t.Fatal(err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records", len(records))
	}
	if records[1][3] != "Lunch, with friends" || records[1][5] != "12.50" || records[1][6] != "one_time" {
		t.Errorf("got %v", records[1])
	}
	if records[2][6] != "recurring" || records[2][7] != "rent" {
		t.Errorf("got %v", records[2])
	}
}

func TestWriteDir(t *testing.T) {
	snap := core.Snapshot{
		Incomes: []core.Transaction{{ID: "i1", Kind: core.Income, Date: core.NewDate(2025, 3, 1), Description: "Pay", Amount: core.Money{Cents: 100}}},
		RecurringExpenses: []core.RecurringDefinition{{
			ID: "gym", Kind: core.Expense, StartDate: core.NewDate(2025, 1, 1), Frequency: core.Monthly,
			Repetitions: 10, Description: "Gym", Amount: core.Money{Cents: 3000}, Category: "health",
		}},
	}
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := WriteDir(dir, snap, core.NewDate(2025, 3, 15))
	if err != nil {
		t.Fatalf("WriteDir() error = %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("got paths %v", paths)
	}

	data, err := os.ReadFile(filepath.Join(dir, ExpensesFile))
	if err != nil {
		t.Fatal(err)
	}
	// 2025-01-01, 2025-01-31, 2025-03-02; the header makes four lines
	if lines := strings.Count(string(data), "\n"); lines != 4 {
		t.Errorf("got %d lines:\n%s", lines, data)
	}

	data, _ = os.ReadFile(filepath.Join(dir, RecurringFile))
	if !strings.Contains(string(data), "gym,expense,2025-01-01,monthly,10,Gym,health,30.00") {
		t.Errorf("got recurring file:\n%s", data)
	}
}
