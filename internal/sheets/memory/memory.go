// Package memory keeps the last exported tables in process. It stands in for
// the spreadsheet in worker tests.
package memory

import (
	"context"
	"sync"

	"bilancio/internal/core"
	ports "bilancio/internal/sheets"
)

var _ ports.Exporter = (*Exporter)(nil)

type Exporter struct {
	mu        sync.Mutex
	reference core.Date
	start     core.Money
	forecast  []core.ForecastPoint
	summary   core.Summary
	budgets   map[string][]core.BudgetStatus
	writes    int
}

func New() *Exporter {
	return &Exporter{budgets: map[string][]core.BudgetStatus{}}
}

func (e *Exporter) WriteForecast(_ context.Context, ref core.Date, start core.Money, points []core.ForecastPoint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reference = ref
	e.start = start
	e.forecast = append([]core.ForecastPoint(nil), points...)
	e.writes++
	return nil
}

func (e *Exporter) WriteSummary(_ context.Context, summary core.Summary) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.summary = core.Summary{
		Months: append([]core.PeriodTotals(nil), summary.Months...),
		Years:  append([]core.PeriodTotals(nil), summary.Years...),
	}
	e.writes++
	return nil
}

func (e *Exporter) WriteBudget(_ context.Context, month string, statuses []core.BudgetStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.budgets[month] = append([]core.BudgetStatus(nil), statuses...)
	e.writes++
	return nil
}

// Forecast returns the last written projection.
func (e *Exporter) Forecast() (core.Date, core.Money, []core.ForecastPoint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reference, e.start, append([]core.ForecastPoint(nil), e.forecast...)
}

func (e *Exporter) Summary() core.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary
}

func (e *Exporter) Budget(month string) []core.BudgetStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.BudgetStatus(nil), e.budgets[month]...)
}

// Writes counts every table written so far.
func (e *Exporter) Writes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writes
}
