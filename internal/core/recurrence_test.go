package core

import "testing"

func monthlyDef(id string, kind Kind, start Date, reps int, cents int64, category string) RecurringDefinition {
	return RecurringDefinition{
		ID:          id,
		Kind:        kind,
		StartDate:   start,
		Frequency:   Monthly,
		Repetitions: reps,
		Description: id,
		Amount:      Money{Cents: cents},
		Category:    category,
	}
}

func TestExpandStopsAfterReferenceMonth(t *testing.T) {
	def := monthlyDef("rent", Expense, NewDate(2025, 1, 1), 5, 1000, "housing")
	got := Expand([]RecurringDefinition{def}, NewDate(2025, 3, 10), "", "")

	want := []string{"2025-01-01", "2025-01-31", "2025-03-02"}
	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(got), len(want))
	}
	for i, tx := range got {
		if tx.Date.String() != want[i] {
			t.Errorf("occurrence %d: got %s, want %s", i, tx.Date, want[i])
		}
		if tx.Origin != RecurringDerived || tx.SourceID != "rent" {
			t.Errorf("occurrence %d not tagged as derived: %+v", i, tx)
		}
		if tx.Description != "rent" {
			t.Errorf("description changed: %q", tx.Description)
		}
	}
	if got[1].ID != "rent#1" {
		t.Errorf("got id %q", got[1].ID)
	}
}

func TestExpandNeverExceedsRepetitions(t *testing.T) {
	cases := []struct {
		name string
		reps int
		ref  Date
		want int
	}{
		{"far reference", 4, NewDate(2030, 1, 1), 4},
		{"single", 1, NewDate(2030, 1, 1), 1},
		{"reference before start", 6, NewDate(2024, 12, 31), 0},
		{"same month as start", 6, NewDate(2025, 1, 1), 2}, // 01-01 and 01-31
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := monthlyDef("d", Income, NewDate(2025, 1, 1), tc.reps, 100, "")
			got := Expand([]RecurringDefinition{def}, tc.ref, "", "")
			if len(got) != tc.want {
				t.Fatalf("got %d, want %d", len(got), tc.want)
			}
			for i := 1; i < len(got); i++ {
				if days := int(got[i].Date.Sub(got[i-1].Date.Time).Hours() / 24); days != OccurrenceStrideDays {
					t.Fatalf("stride %d days between %s and %s", days, got[i-1].Date, got[i].Date)
				}
			}
		})
	}
}

func TestExpandMonthAndYearFilters(t *testing.T) {
	def := monthlyDef("gym", Expense, NewDate(2024, 11, 15), 6, 3000, "sport")
	ref := NewDate(2026, 1, 1)

	byMonth := Expand([]RecurringDefinition{def}, ref, "2025-01", "")
	if len(byMonth) != 1 || byMonth[0].Date.String() != "2025-01-14" {
		t.Fatalf("month filter: got %+v", byMonth)
	}

	// Occurrences filtered out by the year must not end the sequence early.
	byYear := Expand([]RecurringDefinition{def}, ref, "", "2025")
	if len(byYear) != 4 {
		t.Fatalf("year filter: got %d occurrences", len(byYear))
	}
	for _, tx := range byYear {
		if tx.Date.Year() != 2025 {
			t.Fatalf("unexpected %s", tx.Date)
		}
	}
}

func TestExpandKeepsDefinitionOrder(t *testing.T) {
	defs := []RecurringDefinition{
		monthlyDef("b", Income, NewDate(2025, 2, 1), 1, 100, ""),
		monthlyDef("a", Income, NewDate(2025, 1, 1), 1, 100, ""),
	}
	got := Expand(defs, NewDate(2025, 12, 1), "", "")
	if len(got) != 2 || got[0].SourceID != "b" || got[1].SourceID != "a" {
		t.Fatalf("got %+v", got)
	}
}

func TestExpandEmptyIsNonNil(t *testing.T) {
	got := Expand(nil, NewDate(2025, 1, 1), "", "")
	if got == nil || len(got) != 0 {
		t.Fatalf("got %#v", got)
	}
}

func TestOccurrencesStopsWhenConsumerStops(t *testing.T) {
	def := monthlyDef("d", Income, NewDate(2025, 1, 1), 100, 100, "")
	n := 0
	for range Occurrences(def, NewDate(2040, 1, 1)) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("got %d", n)
	}
}

func TestEffectiveTransactions(t *testing.T) {
	s := Snapshot{
		Incomes:          []Transaction{{ID: "i1", Kind: Income, Date: NewDate(2025, 1, 5), Amount: Money{Cents: 500}}},
		RecurringIncomes: []RecurringDefinition{monthlyDef("sal", Income, NewDate(2025, 1, 1), 12, 1000, "")},
		RecurringExpenses: []RecurringDefinition{
			monthlyDef("rent", Expense, NewDate(2025, 1, 1), 12, 700, "housing"),
		},
	}
	incomes, expenses := EffectiveTransactions(s, NewDate(2025, 2, 10))
	if len(incomes) != 3 || incomes[0].ID != "i1" {
		t.Fatalf("incomes: %+v", incomes)
	}
	if len(expenses) != 2 {
		t.Fatalf("expenses: %+v", expenses)
	}
	if len(s.Incomes) != 1 {
		t.Fatal("snapshot mutated")
	}
}
