// Command bilancio serves the ledger API and runs reports, forecasts,
// exports and imports from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bilancio/internal/cli"
	"bilancio/internal/config"
	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

var (
	cfg    *config.Config
	logger *log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bilancio",
	Short: "Personal finance ledger with budgets, goals and forecasts",
	Long: `bilancio records one-time and recurring incomes and expenses, tracks
monthly category budgets and savings goals, and projects the balance over
the coming months.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file (overrides BILANCIO_CONFIG)")
	rootCmd.PersistentFlags().String("backend", "", "Storage backend: memory, sqlite or mongo (overrides DATA_BACKEND)")
}

func setup(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv("BILANCIO_CONFIG", path); err != nil {
			return err
		}
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		if err := os.Setenv("DATA_BACKEND", backend); err != nil {
			return err
		}
	}

	loaded, err := cli.LoadAndValidateConfig()
	if err != nil {
		return err
	}
	cfg = loaded
	logger = cli.SetupLogger(cfg)
	return nil
}

// openApp opens the configured store. events may be nil.
func openApp(ctx context.Context, events services.EventPublisher) (*cli.App, error) {
	app, err := cli.NewApp(ctx, cfg, logger, events)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return app, nil
}

// referenceDate parses a --date flag, defaulting to today.
func referenceDate(cmd *cobra.Command, reports *services.ReportService) (core.Date, error) {
	v, _ := cmd.Flags().GetString("date")
	if v == "" {
		return reports.Today(), nil
	}
	ref, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("--date %q: %w", v, err)
	}
	return ref, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
