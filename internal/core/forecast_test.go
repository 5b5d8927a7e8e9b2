package core

import "testing"

func TestForecastWithoutDefinitionsIsFlat(t *testing.T) {
	current := Money{Cents: 12345}
	got := Forecast(nil, nil, current, NewDate(2025, 1, 15), 6)
	if len(got) != 6 {
		t.Fatalf("got %d points", len(got))
	}
	for i, p := range got {
		if p.Balance != current || !p.Income.IsZero() || !p.Expense.IsZero() {
			t.Fatalf("point %d: %+v", i, p)
		}
	}
}

func TestForecastRepetitionsCutoff(t *testing.T) {
	income := monthlyDef("sal", Income, NewDate(2025, 1, 1), 3, 100000, "")
	expense := monthlyDef("rent", Expense, NewDate(2025, 1, 1), 12, 60000, "housing")
	got := Forecast([]RecurringDefinition{income}, []RecurringDefinition{expense}, Money{Cents: 10000}, NewDate(2025, 1, 15), 4)

	want := []ForecastPoint{
		{Month: "2025-02", Income: Money{Cents: 100000}, Expense: Money{Cents: 60000}, Balance: Money{Cents: 50000}},
		{Month: "2025-03", Income: Money{Cents: 100000}, Expense: Money{Cents: 60000}, Balance: Money{Cents: 90000}},
		{Month: "2025-04", Expense: Money{Cents: 60000}, Balance: Money{Cents: 30000}},
		{Month: "2025-05", Expense: Money{Cents: 60000}, Balance: Money{Cents: -30000}},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestForecastIgnoresDefinitionsNotYetStarted(t *testing.T) {
	def := monthlyDef("bonus", Income, NewDate(2025, 4, 1), 1, 5000, "")
	got := Forecast([]RecurringDefinition{def}, nil, Money{}, NewDate(2025, 1, 15), 4)
	for _, p := range got {
		if p.Month == "2025-04" {
			if p.Income.Cents != 5000 {
				t.Fatalf("april: %+v", p)
			}
			continue
		}
		if !p.Income.IsZero() {
			t.Fatalf("%s: %+v", p.Month, p)
		}
	}
}

func TestForecastLabelsFollowThirtyDayStride(t *testing.T) {
	got := Forecast(nil, nil, Money{}, NewDate(2025, 1, 31), 2)
	if got[0].Month != "2025-03" || got[1].Month != "2025-04" {
		t.Fatalf("got %s, %s", got[0].Month, got[1].Month)
	}
}

func TestForecastNonPositiveHorizon(t *testing.T) {
	for _, h := range []int{0, -3} {
		if got := Forecast(nil, nil, Money{}, NewDate(2025, 1, 1), h); got == nil || len(got) != 0 {
			t.Fatalf("horizon %d: got %#v", h, got)
		}
	}
}

func TestCurrentBalanceSkipsDerivedRecords(t *testing.T) {
	incomes := []Transaction{
		{Amount: Money{Cents: 1000}},
		{Amount: Money{Cents: 999}, Origin: RecurringDerived},
	}
	expenses := []Transaction{{Amount: Money{Cents: 300}}}
	if got := CurrentBalance(incomes, expenses); got.Cents != 700 {
		t.Fatalf("got %v", got)
	}
}

func TestEngineIsIdempotent(t *testing.T) {
	s := Snapshot{
		Expenses:          sampleTransactions()[:3],
		RecurringExpenses: []RecurringDefinition{monthlyDef("rent", Expense, NewDate(2025, 1, 1), 6, 700, "housing")},
		Budget:            BudgetLimits{"food": {Cents: 1000}},
	}
	ref := NewDate(2025, 3, 1)
	run := func() ([]BudgetStatus, []ForecastPoint) {
		incomes, expenses := EffectiveTransactions(s, ref)
		return EvaluateBudget(s.Budget, ByCategory(expenses)),
			Forecast(s.RecurringIncomes, s.RecurringExpenses, CurrentBalance(incomes, expenses), ref, 6)
	}
	b1, f1 := run()
	b2, f2 := run()
	if len(b1) != len(b2) || len(f1) != len(f2) {
		t.Fatal("results differ in size")
	}
	for i := range b1 {
		if b1[i] != b2[i] {
			t.Fatalf("budget row %d differs", i)
		}
	}
	for i := range f1 {
		if f1[i] != f2[i] {
			t.Fatalf("forecast point %d differs", i)
		}
	}
}
