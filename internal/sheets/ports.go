package sheets

import (
	"context"

	"bilancio/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	ForecastWriter interface {
		// WriteForecast replaces the forecast table with points projected from ref.
		WriteForecast(ctx context.Context, ref core.Date, start core.Money, points []core.ForecastPoint) error
	}

	SummaryWriter interface {
		// WriteSummary replaces the monthly and yearly totals table.
		WriteSummary(ctx context.Context, summary core.Summary) error
	}

	BudgetWriter interface {
		// WriteBudget replaces the budget status table of month ("YYYY-MM").
		WriteBudget(ctx context.Context, month string, statuses []core.BudgetStatus) error
	}

	Exporter interface {
		ForecastWriter
		SummaryWriter
		BudgetWriter
	}
)
