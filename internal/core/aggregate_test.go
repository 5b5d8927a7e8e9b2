package core

import "testing"

func TestByCategory(t *testing.T) {
	expenses := []Transaction{
		{Amount: Money{Cents: 1000}, Category: "Food"},
		{Amount: Money{Cents: 550}, Category: "food "},
		{Amount: Money{Cents: 200}, Category: "Fun"},
	}
	got := ByCategory(expenses)
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if got["food"].Cents != 1550 || got["fun"].Cents != 200 {
		t.Fatalf("got %v", got)
	}
	if _, ok := got["rent"]; ok {
		t.Fatal("absent categories must not be zero-filled")
	}

	if empty := ByCategory(nil); empty == nil || len(empty) != 0 {
		t.Fatalf("got %#v", empty)
	}
}

func TestTotal(t *testing.T) {
	if got := Total(nil); !got.IsZero() {
		t.Fatalf("got %v", got)
	}
	txs := []Transaction{{Amount: Money{Cents: 1}}, {Amount: Money{Cents: 2}}}
	if got := Total(txs); got.Cents != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestByPeriod(t *testing.T) {
	incomes := []Transaction{
		{Date: NewDate(2025, 2, 1), Amount: Money{Cents: 100000}},
		{Date: NewDate(2024, 12, 1), Amount: Money{Cents: 50000}},
	}
	expenses := []Transaction{
		{Date: NewDate(2025, 2, 14), Amount: Money{Cents: 30000}},
		{Date: NewDate(2025, 1, 20), Amount: Money{Cents: 2000}},
		{Date: NewDate(2025, 2, 20), Amount: Money{Cents: 1000}},
	}
	got := ByPeriod(incomes, expenses)

	wantMonths := []PeriodTotals{
		{Period: "2024-12", Income: Money{Cents: 50000}, Balance: Money{Cents: 50000}},
		{Period: "2025-01", Expense: Money{Cents: 2000}, Balance: Money{Cents: -2000}},
		{Period: "2025-02", Income: Money{Cents: 100000}, Expense: Money{Cents: 31000}, Balance: Money{Cents: 69000}},
	}
	if len(got.Months) != len(wantMonths) {
		t.Fatalf("got %d months: %+v", len(got.Months), got.Months)
	}
	for i, want := range wantMonths {
		if got.Months[i] != want {
			t.Errorf("month %d: got %+v, want %+v", i, got.Months[i], want)
		}
	}

	wantYears := []PeriodTotals{
		{Period: "2024", Income: Money{Cents: 50000}, Balance: Money{Cents: 50000}},
		{Period: "2025", Income: Money{Cents: 100000}, Expense: Money{Cents: 33000}, Balance: Money{Cents: 67000}},
	}
	if len(got.Years) != len(wantYears) {
		t.Fatalf("got %d years: %+v", len(got.Years), got.Years)
	}
	for i, want := range wantYears {
		if got.Years[i] != want {
			t.Errorf("year %d: got %+v, want %+v", i, got.Years[i], want)
		}
	}
}

func TestByPeriodEmpty(t *testing.T) {
	got := ByPeriod(nil, nil)
	if got.Months == nil || got.Years == nil || len(got.Months)+len(got.Years) != 0 {
		t.Fatalf("got %#v", got)
	}
}

func TestSortedByAmount(t *testing.T) {
	got := SortedByAmount(map[string]Money{"b": {Cents: 5}, "a": {Cents: 5}, "c": {Cents: 9}})
	if len(got) != 3 || got[0].Name != "c" || got[1].Name != "a" || got[2].Name != "b" {
		t.Fatalf("got %+v", got)
	}
}
