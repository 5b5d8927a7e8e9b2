package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/metrics"
	"bilancio/internal/services"
	"bilancio/internal/sheets"
)

const (
	TriggerStartup = "startup"
	TriggerTick    = "tick"
	TriggerEvent   = "event"
)

// ReportSource is the read side the worker evaluates. *services.ReportService
// implements it.
type ReportSource interface {
	Today() core.Date
	Horizon() int
	Invalidate()
	MonthlyBudget(ctx context.Context, ref core.Date) ([]core.BudgetStatus, error)
	Forecast(ctx context.Context, ref core.Date, horizon int) (*services.ForecastReport, error)
	Build(ctx context.Context, f core.TransactionFilter, ref core.Date) (*services.Report, error)
}

// AlertPublisher sends budget alerts. *amqp.Client implements it.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// AlertWorker checks the current month's budget after every ledger change
// and on a timer, publishes one alert per exceeded category and refreshes the
// spreadsheet export when one is configured.
type AlertWorker struct {
	reports  ReportSource
	alerts   AlertPublisher
	exporter sheets.Exporter
	logger   *log.Logger

	mu sync.Mutex
	// spend already alerted, keyed by month and category
	alerted map[string]int64
}

// NewAlertWorker builds a worker. alerts and exporter may be nil.
func NewAlertWorker(reports ReportSource, alerts AlertPublisher, exporter sheets.Exporter, logger *log.Logger) *AlertWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &AlertWorker{
		reports:  reports,
		alerts:   alerts,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
		alerted:  map[string]int64{},
	}
}

// HandleLedgerChanged reacts to a change announced on the queue. A failed
// run is logged and left to the next tick, so the delivery is never requeued.
func (w *AlertWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		log.FieldEntity, msg.Entity,
		log.FieldOperation, msg.Operation,
		log.FieldID, msg.ID)
	w.reports.Invalidate()
	_ = w.Run(ctx, TriggerEvent)
	return nil
}

// Run performs one evaluation.
func (w *AlertWorker) Run(ctx context.Context, trigger string) error {
	err := w.run(ctx)
	result := "ok"
	if err != nil {
		result = "error"
		w.logger.ErrorContext(ctx, "Worker run failed", "trigger", trigger, log.FieldError, err)
	}
	metrics.WorkerRuns.WithLabelValues(trigger, result).Inc()
	return err
}

func (w *AlertWorker) run(ctx context.Context) error {
	today := w.reports.Today()
	month := today.Period()

	statuses, err := w.reports.MonthlyBudget(ctx, today)
	if err != nil {
		return fmt.Errorf("evaluate budget: %w", err)
	}

	var errs []error
	if err := w.publishAlerts(ctx, month, core.Exceeded(statuses)); err != nil {
		errs = append(errs, err)
	}
	if w.exporter != nil {
		if err := w.export(ctx, today, month, statuses); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// publishAlerts sends an alert for each exceeded category whose spend grew
// since the last alert of the month.
func (w *AlertWorker) publishAlerts(ctx context.Context, month string, exceeded []core.BudgetStatus) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for key := range w.alerted {
		if !strings.HasPrefix(key, month+"|") {
			delete(w.alerted, key)
		}
	}

	var errs []error
	for _, st := range exceeded {
		key := month + "|" + st.Category
		if last, ok := w.alerted[key]; ok && st.Spent.Cents <= last {
			metrics.BudgetAlerts.WithLabelValues("skipped").Inc()
			continue
		}

		if w.alerts == nil {
			w.logger.WarnContext(ctx, "Budget exceeded, no alert publisher configured",
				log.FieldCategory, st.Category,
				log.FieldAmountCents, st.Spent.Cents)
			w.alerted[key] = st.Spent.Cents
			continue
		}

		msg := amqp.NewBudgetAlertMessage(month, st.Category, st.Limit.Cents, st.Spent.Cents)
		if err := w.alerts.PublishBudgetAlert(ctx, msg); err != nil {
			metrics.BudgetAlerts.WithLabelValues("failed").Inc()
			errs = append(errs, fmt.Errorf("publish alert for %s: %w", st.Category, err))
			continue
		}
		metrics.BudgetAlerts.WithLabelValues("published").Inc()
		w.alerted[key] = st.Spent.Cents
		w.logger.InfoContext(ctx, "Budget alert published",
			log.FieldCategory, st.Category,
			"over_cents", msg.OverCents)
	}
	return errors.Join(errs...)
}

func (w *AlertWorker) export(ctx context.Context, today core.Date, month string, statuses []core.BudgetStatus) error {
	fr, err := w.reports.Forecast(ctx, today, w.reports.Horizon())
	if err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	report, err := w.reports.Build(ctx, core.TransactionFilter{}, today)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	var errs []error
	if err := w.exporter.WriteForecast(ctx, fr.Reference, fr.StartBalance, fr.Points); err != nil {
		errs = append(errs, fmt.Errorf("export forecast: %w", err))
	}
	if err := w.exporter.WriteSummary(ctx, report.Summary); err != nil {
		errs = append(errs, fmt.Errorf("export summary: %w", err))
	}
	if err := w.exporter.WriteBudget(ctx, month, statuses); err != nil {
		errs = append(errs, fmt.Errorf("export budget: %w", err))
	}
	if len(errs) == 0 {
		w.logger.InfoContext(ctx, "Spreadsheet export completed", log.FieldReference, today.String())
	}
	return errors.Join(errs...)
}

// Start runs once immediately and then every interval until ctx is done.
func (w *AlertWorker) Start(ctx context.Context, interval time.Duration) {
	_ = w.Run(ctx, TriggerStartup)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = w.Run(ctx, TriggerTick)
		}
	}
}
