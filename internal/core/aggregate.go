package core

import "sort"

// Total sums the amounts of txs.
func Total(txs []Transaction) Money {
	var total Money
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return total
}

// ByCategory sums expenses per normalized category. Categories absent from
// the input are absent from the result.
func ByCategory(expenses []Transaction) map[string]Money {
	out := make(map[string]Money)
	for _, tx := range expenses {
		key := NormalizeCategory(tx.Category)
		out[key] = out[key].Add(tx.Amount)
	}
	return out
}

// ByPeriod buckets incomes and expenses per "YYYY-MM" month and rolls the
// months up per year. Only periods holding at least one record appear.
func ByPeriod(incomes, expenses []Transaction) Summary {
	months := make(map[string]*PeriodTotals)
	bucket := func(period string) *PeriodTotals {
		p, ok := months[period]
		if !ok {
			p = &PeriodTotals{Period: period}
			months[period] = p
		}
		return p
	}
	for _, tx := range incomes {
		p := bucket(tx.Date.Period())
		p.Income = p.Income.Add(tx.Amount)
	}
	for _, tx := range expenses {
		p := bucket(tx.Date.Period())
		p.Expense = p.Expense.Add(tx.Amount)
	}

	summary := Summary{
		Months: make([]PeriodTotals, 0, len(months)),
		Years:  []PeriodTotals{},
	}
	for _, p := range months {
		p.Balance = p.Income.Sub(p.Expense)
		summary.Months = append(summary.Months, *p)
	}
	sortPeriods(summary.Months)

	years := make(map[string]*PeriodTotals)
	for _, m := range summary.Months {
		key := m.Period[:4]
		y, ok := years[key]
		if !ok {
			y = &PeriodTotals{Period: key}
			years[key] = y
		}
		y.Income = y.Income.Add(m.Income)
		y.Expense = y.Expense.Add(m.Expense)
		y.Balance = y.Balance.Add(m.Balance)
	}
	for _, y := range years {
		summary.Years = append(summary.Years, *y)
	}
	sortPeriods(summary.Years)

	return summary
}

// Zero-padded ISO periods sort chronologically as strings.
func sortPeriods(ps []PeriodTotals) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Period < ps[j].Period })
}
