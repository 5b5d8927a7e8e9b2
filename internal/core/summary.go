package core

import (
	"sort"
	"strings"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// PeriodTotals is the income/expense/balance triple of one bucket, either a
// "YYYY-MM" month or a "YYYY" year.
type PeriodTotals struct {
	Period  string
	Income  Money
	Expense Money
	Balance Money
}

// Summary holds the sparse monthly series and its yearly roll-up, both in
// chronological order.
type Summary struct {
	Months []PeriodTotals
	Years  []PeriodTotals
}

// SortedByName lists category totals in lexicographic category order.
func SortedByName(totals map[string]Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SortedByAmount lists category totals from the largest to the smallest,
// ties broken by name.
func SortedByAmount(totals map[string]Money) []CategoryAmount {
	out := SortedByName(totals)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents > out[j].Amount.Cents })
	return out
}

// DisplayCategory capitalizes a normalized category key for listings.
func DisplayCategory(category string) string {
	if category == "" {
		return ""
	}
	r := []rune(category)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
