package core

import "sort"

const (
	BudgetWithin   BudgetState = "within"
	BudgetExceeded BudgetState = "exceeded"
)

type (
	BudgetState string

	// BudgetLimits maps a normalized category to its spending ceiling.
	BudgetLimits map[string]Money

	BudgetStatus struct {
		Category  string
		Limit     Money
		Spent     Money
		Remaining Money
		State     BudgetState
	}
)

// ValidateLimit accepts zero but not negative ceilings.
func ValidateLimit(limit Money) error {
	if limit.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// EvaluateBudget compares each configured limit against the recorded spend,
// in category order. Limits drive the iteration: spend without a limit is
// ignored and a limit without spend reports zero spent.
func EvaluateBudget(limits BudgetLimits, spend map[string]Money) []BudgetStatus {
	categories := make([]string, 0, len(limits))
	for category := range limits {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	out := make([]BudgetStatus, 0, len(categories))
	for _, category := range categories {
		limit := limits[category]
		spent := spend[NormalizeCategory(category)]
		remaining := limit.Sub(spent)
		state := BudgetWithin
		if remaining.IsNegative() {
			state = BudgetExceeded
		}
		out = append(out, BudgetStatus{
			Category:  category,
			Limit:     limit,
			Spent:     spent,
			Remaining: remaining,
			State:     state,
		})
	}
	return out
}

// Exceeded keeps only the categories over their limit.
func Exceeded(statuses []BudgetStatus) []BudgetStatus {
	out := make([]BudgetStatus, 0)
	for _, st := range statuses {
		if st.State == BudgetExceeded {
			out = append(out, st)
		}
	}
	return out
}
