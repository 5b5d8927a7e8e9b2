package cli

import (
	"context"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/log"
)

func TestLoadAndValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"defaults", nil, false},
		{"explicit memory backend", map[string]string{"DATA_BACKEND": "memory", "FORECAST_MONTHS": "12"}, false},
		{"unknown backend", map[string]string{"DATA_BACKEND": "postgres"}, true},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BILANCIO_CONFIG", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadAndValidateConfig()
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadAndValidateConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewAppWiresServices(t *testing.T) {
	t.Setenv("BILANCIO_CONFIG", "")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("CATEGORIES_FILE", t.TempDir()+"/seed_categories.txt")
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	app, err := NewApp(ctx, cfg, log.Discard(), nil)
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	defer app.Close()

	if app.Pinger() != nil {
		t.Error("memory store should not expose a readiness probe")
	}

	ref := core.NewDate(2025, 6, 10)
	first, err := app.Reports.Build(ctx, core.TransactionFilter{}, ref)
	if err != nil {
		t.Fatal(err)
	}
	tx := core.Transaction{Kind: core.Income, Date: core.NewDate(2025, 6, 1), Description: "Pay", Amount: core.Money{Cents: 5000}}
	if _, err := app.Ledger.AddTransaction(ctx, tx); err != nil {
		t.Fatal(err)
	}
	second, err := app.Reports.Build(ctx, core.TransactionFilter{}, ref)
	if err != nil {
		t.Fatal(err)
	}
	if first.TotalIncome.Cents != 0 || second.TotalIncome.Cents != 5000 {
		t.Errorf("report not refreshed after a change: %v then %v", first.TotalIncome, second.TotalIncome)
	}
}
