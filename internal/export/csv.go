// Package export moves ledger data in and out of files: CSV listings of the
// effective transactions and the JSON data file of the desktop application.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"bilancio/internal/core"
)

// File names written by WriteDir.
const (
	IncomesFile   = "incomes.csv"
	ExpensesFile  = "expenses.csv"
	RecurringFile = "recurring.csv"
)

var (
	transactionHeader = []string{"id", "kind", "date", "description", "category", "amount", "origin", "source_id"}
	recurringHeader   = []string{"id", "kind", "start_date", "frequency", "repetitions", "description", "category", "amount"}
)

// WriteTransactions writes txs as CSV with a header row.
func WriteTransactions(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionHeader); err != nil {
		return err
	}
	for _, tx := range txs {
		record := []string{
			tx.ID,
			string(tx.Kind),
			tx.Date.String(),
			tx.Description,
			tx.Category,
			tx.Amount.String(),
			tx.Origin.String(),
			tx.SourceID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecurring writes the definitions themselves, not their occurrences.
func WriteRecurring(w io.Writer, defs []core.RecurringDefinition) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recurringHeader); err != nil {
		return err
	}
	for _, def := range defs {
		record := []string{
			def.ID,
			string(def.Kind),
			def.StartDate.String(),
			string(def.Frequency),
			strconv.Itoa(def.Repetitions),
			def.Description,
			def.Category,
			def.Amount.String(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDir exports the effective transactions visible at ref and the
// recurring definitions of snap into dir, creating it when missing. It
// returns the written paths.
func WriteDir(dir string, snap core.Snapshot, ref core.Date) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	incomes, expenses := core.EffectiveTransactions(snap, ref)
	recurring := append(append([]core.RecurringDefinition{}, snap.RecurringIncomes...), snap.RecurringExpenses...)

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{IncomesFile, func(w io.Writer) error { return WriteTransactions(w, incomes) }},
		{ExpensesFile, func(w io.Writer) error { return WriteTransactions(w, expenses) }},
		{RecurringFile, func(w io.Writer) error { return WriteRecurring(w, recurring) }},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := writeFile(path, f.write); err != nil {
			return paths, fmt.Errorf("write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}
