package memory

import (
	"context"
	"testing"

	"bilancio/internal/core"
)

func TestExporterKeepsCopies(t *testing.T) {
	e := New()
	ctx := context.Background()

	points := []core.ForecastPoint{{Month: "2025-04", Balance: core.Money{Cents: 10}}}
	if err := e.WriteForecast(ctx, core.NewDate(2025, 3, 1), core.Money{Cents: 5}, points); err != nil {
		t.Fatal(err)
	}
	points[0].Month = "changed"

	ref, start, got := e.Forecast()
	if ref.String() != "2025-03-01" || start.Cents != 5 {
		t.Errorf("got ref %s start %v", ref, start)
	}
	if len(got) != 1 || got[0].Month != "2025-04" {
		t.Errorf("stored forecast was aliased: %+v", got)
	}

	statuses := []core.BudgetStatus{{Category: "food", State: core.BudgetExceeded}}
	if err := e.WriteBudget(ctx, "2025-03", statuses); err != nil {
		t.Fatal(err)
	}
	if b := e.Budget("2025-03"); len(b) != 1 || b[0].Category != "food" {
		t.Errorf("got budget %+v", b)
	}
	if b := e.Budget("2025-04"); len(b) != 0 {
		t.Errorf("unexpected budget %+v", b)
	}
	if e.Writes() != 2 {
		t.Errorf("got %d writes", e.Writes())
	}
}
