package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
	"bilancio/internal/metrics"
)

// DefaultForecastMonths is the horizon used when none is configured.
const DefaultForecastMonths = 6

type (
	// Report is the full financial picture at a reference date. Reports are
	// shared between callers through the cache and must not be mutated.
	Report struct {
		Reference    core.Date
		Filter       core.TransactionFilter
		TotalIncome  core.Money
		TotalExpense core.Money
		Balance      core.Money
		ByCategory   []core.CategoryAmount
		Budget       []core.BudgetStatus

		// one-time records matching the filter
		Incomes  []core.Transaction
		Expenses []core.Transaction

		RecurringIncomes  []core.RecurringDefinition
		RecurringExpenses []core.RecurringDefinition

		Summary  core.Summary
		Forecast ForecastReport
		Goals    []GoalView
	}

	// ForecastReport is a balance projection and the balance it starts from.
	ForecastReport struct {
		Reference    core.Date
		StartBalance core.Money
		Points       []core.ForecastPoint
	}

	GoalView struct {
		core.Goal
		Progress  float64
		Remaining core.Money
		Status    core.GoalStatus
	}
)

// ReportService builds reports and forecasts out of ledger snapshots.
type ReportService struct {
	snapshots ledger.SnapshotReader
	cache     *cache.Cache
	horizon   int
	logger    *log.Logger
	now       func() time.Time
}

// NewReportService caches built reports for ttl. A non-positive ttl disables
// the cache.
func NewReportService(snapshots ledger.SnapshotReader, horizon int, ttl time.Duration, logger *log.Logger) *ReportService {
	if horizon <= 0 {
		horizon = DefaultForecastMonths
	}
	if logger == nil {
		logger = log.Discard()
	}
	s := &ReportService{
		snapshots: snapshots,
		horizon:   horizon,
		logger:    logger.WithComponent(log.ComponentReport),
		now:       time.Now,
	}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

// Today is the reference date used when callers do not pick one.
func (s *ReportService) Today() core.Date {
	return core.DateOf(s.now())
}

// Horizon returns the configured number of forecast months.
func (s *ReportService) Horizon() int {
	return s.horizon
}

// Invalidate drops every cached report. LedgerService calls it on change.
func (s *ReportService) Invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

// Build returns the report for filter f at ref, from the cache when possible.
func (s *ReportService) Build(ctx context.Context, f core.TransactionFilter, ref core.Date) (*Report, error) {
	key := reportKey(f, ref)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			metrics.ReportCache.WithLabelValues("hit").Inc()
			return cached.(*Report), nil
		}
		metrics.ReportCache.WithLabelValues("miss").Inc()
	}

	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	start := time.Now()
	report := s.build(snap, f, ref)
	metrics.ReportDuration.Observe(time.Since(start).Seconds())

	s.logger.DebugContext(ctx, "Report built",
		log.FieldReference, ref.String(),
		"incomes", len(report.Incomes),
		"expenses", len(report.Expenses))

	if s.cache != nil {
		s.cache.SetDefault(key, report)
	}
	return report, nil
}

func (s *ReportService) build(snap core.Snapshot, f core.TransactionFilter, ref core.Date) *Report {
	incomes, expenses := core.EffectiveTransactions(snap, ref)

	// Incomes carry no category, so the category predicate only narrows expenses.
	incomeFilter := f
	incomeFilter.Category = ""
	filteredIncomes := core.Filter(incomes, incomeFilter)
	filteredExpenses := core.Filter(expenses, f)

	totalIncome := core.Total(filteredIncomes)
	totalExpense := core.Total(filteredExpenses)
	spend := core.ByCategory(filteredExpenses)

	return &Report{
		Reference:         ref,
		Filter:            f,
		TotalIncome:       totalIncome,
		TotalExpense:      totalExpense,
		Balance:           totalIncome.Sub(totalExpense),
		ByCategory:        core.SortedByName(spend),
		Budget:            core.EvaluateBudget(snap.Budget, spend),
		Incomes:           core.OneTimeOnly(filteredIncomes),
		Expenses:          core.OneTimeOnly(filteredExpenses),
		RecurringIncomes:  snap.RecurringIncomes,
		RecurringExpenses: snap.RecurringExpenses,
		Summary:           core.ByPeriod(incomes, expenses),
		Forecast:          s.forecast(snap, ref, s.horizon),
		Goals:             goalViews(snap.Goals, ref),
	}
}

// Forecast projects the balance over horizon months after ref. A non-positive
// horizon falls back to the configured one.
func (s *ReportService) Forecast(ctx context.Context, ref core.Date, horizon int) (*ForecastReport, error) {
	if horizon <= 0 {
		horizon = s.horizon
	}
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	fr := s.forecast(snap, ref, horizon)
	s.logger.DebugContext(ctx, "Forecast computed",
		log.FieldReference, ref.String(),
		log.FieldHorizon, horizon)
	return &fr, nil
}

func (s *ReportService) forecast(snap core.Snapshot, ref core.Date, horizon int) ForecastReport {
	current := core.CurrentBalance(snap.Incomes, snap.Expenses)
	points := core.Forecast(snap.RecurringIncomes, snap.RecurringExpenses, current, ref, horizon)
	if len(points) > 0 {
		metrics.ProjectedBalance.Set(points[len(points)-1].Balance.Float64())
	}
	return ForecastReport{
		Reference:    ref,
		StartBalance: current,
		Points:       points,
	}
}

// MonthlyBudget evaluates the budget against the expenses of ref's month,
// recurring occurrences included.
func (s *ReportService) MonthlyBudget(ctx context.Context, ref core.Date) ([]core.BudgetStatus, error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	_, expenses := core.EffectiveTransactions(snap, ref)
	monthly := core.Filter(expenses, core.TransactionFilter{Month: ref.Period()})
	return core.EvaluateBudget(snap.Budget, core.ByCategory(monthly)), nil
}

// Effective returns the one-time records and the recurring occurrences
// visible at ref.
func (s *ReportService) Effective(ctx context.Context, ref core.Date) (incomes, expenses []core.Transaction, err error) {
	snap, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	incomes, expenses = core.EffectiveTransactions(snap, ref)
	return incomes, expenses, nil
}

func goalViews(goals []core.Goal, today core.Date) []GoalView {
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, GoalView{
			Goal:      g,
			Progress:  g.Progress(),
			Remaining: g.Remaining(),
			Status:    g.Status(today),
		})
	}
	return out
}

func reportKey(f core.TransactionFilter, ref core.Date) string {
	return strings.Join([]string{
		ref.String(),
		strings.ToLower(f.Keyword),
		core.NormalizeCategory(f.Category),
		f.Month,
		f.Year,
	}, "|")
}
