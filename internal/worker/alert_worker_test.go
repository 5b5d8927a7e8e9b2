package worker

import (
	"context"
	"errors"
	"testing"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/memory"
	"bilancio/internal/services"
	sheetsmem "bilancio/internal/sheets/memory"
)

type fixedReports struct {
	*services.ReportService
	today core.Date
}

func (r fixedReports) Today() core.Date { return r.today }

type fakeAlerts struct {
	sent []*amqp.BudgetAlertMessage
	err  error
}

func (f *fakeAlerts) PublishBudgetAlert(_ context.Context, msg *amqp.BudgetAlertMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func setup(t *testing.T) (*memory.Store, fixedReports) {
	t.Helper()
	ctx := context.Background()
	store := memory.New(nil)
	if err := store.SetBudget(ctx, "food", core.Money{Cents: 10000}); err != nil {
		t.Fatal(err)
	}
	if err := store.SetBudget(ctx, "transport", core.Money{Cents: 5000}); err != nil {
		t.Fatal(err)
	}
	add := func(id, category string, cents int64, date core.Date) {
		tx := core.Transaction{ID: id, Kind: core.Expense, Date: date, Description: id, Amount: core.Money{Cents: cents}, Category: category}
		if err := store.AddTransaction(ctx, tx); err != nil {
			t.Fatal(err)
		}
	}
	add("market", "food", 8000, core.NewDate(2025, 5, 2))
	add("restaurant", "food", 4000, core.NewDate(2025, 5, 10))
	add("bus", "transport", 1000, core.NewDate(2025, 5, 3))
	add("old", "transport", 9000, core.NewDate(2025, 4, 3))

	reports := services.NewReportService(store, 3, 0, nil)
	return store, fixedReports{ReportService: reports, today: core.NewDate(2025, 5, 15)}
}

func TestRunPublishesExceededCategories(t *testing.T) {
	_, reports := setup(t)
	alerts := &fakeAlerts{}
	w := NewAlertWorker(reports, alerts, nil, nil)

	if err := w.Run(context.Background(), TriggerTick); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(alerts.sent) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts.sent))
	}
	msg := alerts.sent[0]
	if msg.Month != "2025-05" || msg.Category != "food" || msg.OverCents != 2000 {
		t.Errorf("got %+v", msg)
	}
}

func TestRunAlertsOnlyWhenSpendGrows(t *testing.T) {
	store, reports := setup(t)
	alerts := &fakeAlerts{}
	w := NewAlertWorker(reports, alerts, nil, nil)
	ctx := context.Background()

	_ = w.Run(ctx, TriggerTick)
	_ = w.Run(ctx, TriggerTick)
	if len(alerts.sent) != 1 {
		t.Fatalf("repeated run re-alerted: %d alerts", len(alerts.sent))
	}

	more := core.Transaction{ID: "snack", Kind: core.Expense, Date: core.NewDate(2025, 5, 12), Description: "snack", Amount: core.Money{Cents: 300}, Category: "food"}
	if err := store.AddTransaction(ctx, more); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleLedgerChanged(ctx, amqp.NewLedgerChangedMessage(amqp.EntityTransaction, "create", "snack")); err != nil {
		t.Fatal(err)
	}
	if len(alerts.sent) != 2 || alerts.sent[1].SpentCents != 12300 {
		t.Errorf("expected a second alert with the new spend, got %+v", alerts.sent)
	}
}

func TestRunReportsPublishFailures(t *testing.T) {
	_, reports := setup(t)
	boom := errors.New("circuit open")
	alerts := &fakeAlerts{err: boom}
	w := NewAlertWorker(reports, alerts, nil, nil)

	err := w.Run(context.Background(), TriggerTick)
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}

	// a failed alert is retried on the next run
	alerts.err = nil
	if err := w.Run(context.Background(), TriggerTick); err != nil {
		t.Fatal(err)
	}
	if len(alerts.sent) != 1 {
		t.Errorf("got %d alerts after retry", len(alerts.sent))
	}
}

func TestRunExportsToSpreadsheet(t *testing.T) {
	_, reports := setup(t)
	exporter := sheetsmem.New()
	w := NewAlertWorker(reports, nil, exporter, nil)

	if err := w.Run(context.Background(), TriggerStartup); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if exporter.Writes() != 3 {
		t.Errorf("got %d writes, want 3", exporter.Writes())
	}

	ref, start, points := exporter.Forecast()
	if ref.String() != "2025-05-15" || len(points) != 3 {
		t.Errorf("got ref %s and %d points", ref, len(points))
	}
	if start.Cents != -22000 {
		t.Errorf("got start balance %v", start)
	}
	if months := exporter.Summary().Months; len(months) != 2 {
		t.Errorf("got summary %+v", months)
	}
	budget := exporter.Budget("2025-05")
	if len(budget) != 2 || budget[0].State != core.BudgetExceeded || budget[1].State != core.BudgetWithin {
		t.Errorf("got budget %+v", budget)
	}
}
