package core

import "strings"

// TransactionFilter holds the optional report predicates. Empty fields are
// inactive; active ones are ANDed.
type TransactionFilter struct {
	Keyword  string // case-insensitive substring of the description
	Category string // case-insensitive exact category
	Month    string // "YYYY-MM" prefix of the date
	Year     string // "YYYY" prefix of the date
}

// IsZero reports whether no predicate is active.
func (f TransactionFilter) IsZero() bool {
	return f == TransactionFilter{}
}

// Match reports whether tx satisfies every active predicate.
func (f TransactionFilter) Match(tx Transaction) bool {
	if f.Keyword != "" && !strings.Contains(strings.ToLower(tx.Description), strings.ToLower(f.Keyword)) {
		return false
	}
	// Records without a category never match a category filter.
	if f.Category != "" && (tx.Category == "" || NormalizeCategory(tx.Category) != NormalizeCategory(f.Category)) {
		return false
	}
	date := tx.Date.String()
	if f.Month != "" && !strings.HasPrefix(date, f.Month) {
		return false
	}
	if f.Year != "" && !strings.HasPrefix(date, f.Year) {
		return false
	}
	return true
}

// Filter returns the records of txs matching f, in input order. The input is
// left untouched.
func Filter(txs []Transaction, f TransactionFilter) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// OneTimeOnly keeps the records stored directly, dropping derived ones.
func OneTimeOnly(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Origin == OneTime {
			out = append(out, tx)
		}
	}
	return out
}
