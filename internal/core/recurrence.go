package core

import (
	"iter"
	"strconv"
	"strings"
)

// OccurrenceStrideDays is the fixed spacing between two occurrences of a
// monthly definition. It is not calendar-month arithmetic.
const OccurrenceStrideDays = 30

// frequencyStrides maps each supported frequency to its stride in days.
var frequencyStrides = map[Frequency]int{
	Monthly: OccurrenceStrideDays,
}

// Valid reports whether the frequency is supported.
func (f Frequency) Valid() bool {
	_, ok := frequencyStrides[f]
	return ok
}

// StrideDays returns the spacing between occurrences of f.
func (f Frequency) StrideDays() int {
	if stride, ok := frequencyStrides[f]; ok {
		return stride
	}
	return OccurrenceStrideDays
}

// occurrence builds the i-th derived record of the definition.
func (r RecurringDefinition) occurrence(i int, at Date) Transaction {
	return Transaction{
		ID:          r.ID + "#" + strconv.Itoa(i),
		Kind:        r.Kind,
		Date:        at,
		Description: r.Description,
		Amount:      r.Amount,
		Category:    r.Category,
		Origin:      RecurringDerived,
		SourceID:    r.ID,
	}
}

// Occurrences lazily yields the dated instances of def in chronological
// order. It stops at the first occurrence whose calendar month is later than
// the month of ref, and never yields more than def.Repetitions records.
func Occurrences(def RecurringDefinition, ref Date) iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		stride := def.Frequency.StrideDays()
		for i := 0; i < def.Repetitions; i++ {
			at := def.StartDate.AddDays(stride * i)
			if at.monthAfter(ref) {
				return
			}
			if !yield(def.occurrence(i, at)) {
				return
			}
		}
	}
}

// Expand turns recurring definitions into the derived transactions visible at
// ref. A non-empty month keeps occurrences whose "YYYY-MM" starts with it and
// a non-empty year keeps occurrences whose year starts with it; filtered out
// occurrences do not end the sequence. Definitions keep their storage order.
func Expand(defs []RecurringDefinition, ref Date, month, year string) []Transaction {
	out := []Transaction{}
	for _, def := range defs {
		for tx := range Occurrences(def, ref) {
			if month != "" && !strings.HasPrefix(tx.Date.Period(), month) {
				continue
			}
			if year != "" && !strings.HasPrefix(tx.Date.Format("2006"), year) {
				continue
			}
			out = append(out, tx)
		}
	}
	return out
}

// EffectiveTransactions returns the one-time records of s followed by the
// occurrences of its recurring definitions visible at ref.
func EffectiveTransactions(s Snapshot, ref Date) (incomes, expenses []Transaction) {
	incomes = append(append([]Transaction{}, s.Incomes...), Expand(s.RecurringIncomes, ref, "", "")...)
	expenses = append(append([]Transaction{}, s.Expenses...), Expand(s.RecurringExpenses, ref, "", "")...)
	return incomes, expenses
}
