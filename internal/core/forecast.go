package core

// ForecastPoint is the projection for one future month.
type ForecastPoint struct {
	Month   string // "YYYY-MM"
	Balance Money
	Income  Money
	Expense Money
}

// CurrentBalance is the forecast seed: one-time incomes minus one-time
// expenses. Recurring-derived records are skipped so they are never counted
// twice once the projection adds them month by month.
func CurrentBalance(incomes, expenses []Transaction) Money {
	return Total(OneTimeOnly(incomes)).Sub(Total(OneTimeOnly(expenses)))
}

// Forecast projects the balance over horizon future months. Month k targets
// ref plus 30*k days; a definition contributes its amount to that month when
// it has started and fewer than Repetitions months have elapsed since its
// start month. The returned slice has exactly horizon entries (none when
// horizon is not positive).
func Forecast(incomes, expenses []RecurringDefinition, current Money, ref Date, horizon int) []ForecastPoint {
	if horizon <= 0 {
		return []ForecastPoint{}
	}
	out := make([]ForecastPoint, 0, horizon)
	balance := current
	for k := 1; k <= horizon; k++ {
		target := ref.AddDays(OccurrenceStrideDays * k)
		income := projectedAmount(incomes, target)
		expense := projectedAmount(expenses, target)
		balance = balance.Add(income).Sub(expense)
		out = append(out, ForecastPoint{
			Month:   target.Period(),
			Balance: balance,
			Income:  income,
			Expense: expense,
		})
	}
	return out
}

// projectedAmount sums the definitions still active in target's month.
func projectedAmount(defs []RecurringDefinition, target Date) Money {
	var sum Money
	for _, def := range defs {
		elapsed := monthsBetween(def.StartDate, target)
		if elapsed < 0 {
			continue
		}
		if elapsed < def.Repetitions {
			sum = sum.Add(def.Amount)
		}
	}
	return sum
}

// monthsBetween counts calendar months from start's month to target's month.
func monthsBetween(start, target Date) int {
	return (target.Year()-start.Year())*12 + (target.Month() - start.Month())
}
