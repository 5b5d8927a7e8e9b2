package core

import "testing"

func sampleTransactions() []Transaction {
	return []Transaction{
		{ID: "1", Kind: Expense, Date: NewDate(2025, 1, 3), Description: "Grocery store", Amount: Money{Cents: 4000}, Category: "Food"},
		{ID: "2", Kind: Expense, Date: NewDate(2025, 2, 8), Description: "Cinema", Amount: Money{Cents: 1200}, Category: "fun"},
		{ID: "3", Kind: Expense, Date: NewDate(2024, 2, 9), Description: "grocery market", Amount: Money{Cents: 2500}, Category: "food"},
		{ID: "4", Kind: Income, Date: NewDate(2025, 2, 1), Description: "Salary", Amount: Money{Cents: 200000}},
	}
}

func ids(txs []Transaction) string {
	s := ""
	for _, tx := range txs {
		s += tx.ID
	}
	return s
}

func TestFilter(t *testing.T) {
	cases := []struct {
		name string
		f    TransactionFilter
		want string
	}{
		{"empty filter keeps all", TransactionFilter{}, "1234"},
		{"keyword is case-insensitive", TransactionFilter{Keyword: "GROCERY"}, "13"},
		{"category is case-insensitive", TransactionFilter{Category: "FOOD"}, "13"},
		{"income never matches a category", TransactionFilter{Category: "salary"}, ""},
		{"month prefix", TransactionFilter{Month: "2025-02"}, "24"},
		{"year prefix", TransactionFilter{Year: "2024"}, "3"},
		{"conjunction", TransactionFilter{Keyword: "grocery", Year: "2025"}, "1"},
		{"no match", TransactionFilter{Keyword: "rent"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(sampleTransactions(), tc.f)
			if got == nil {
				t.Fatal("nil result")
			}
			if ids(got) != tc.want {
				t.Fatalf("got %q, want %q", ids(got), tc.want)
			}
		})
	}
}

func TestFilterComposes(t *testing.T) {
	txs := sampleTransactions()
	a := TransactionFilter{Keyword: "grocery"}
	b := TransactionFilter{Month: "2025-01"}
	chained := Filter(Filter(txs, a), b)
	combined := Filter(txs, TransactionFilter{Keyword: "grocery", Month: "2025-01"})
	if ids(chained) != ids(combined) {
		t.Fatalf("chained %q, combined %q", ids(chained), ids(combined))
	}
	if ids(txs) != "1234" {
		t.Fatal("input modified")
	}
}

func TestFilterIsZero(t *testing.T) {
	if !(TransactionFilter{}).IsZero() {
		t.Fatal("empty filter should be zero")
	}
	if (TransactionFilter{Year: "2025"}).IsZero() {
		t.Fatal("year filter is not zero")
	}
}

func TestOneTimeOnly(t *testing.T) {
	txs := []Transaction{{ID: "a"}, {ID: "b", Origin: RecurringDerived}, {ID: "c"}}
	if got := ids(OneTimeOnly(txs)); got != "ac" {
		t.Fatalf("got %q", got)
	}
}
