package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
	"bilancio/internal/export"
	"bilancio/internal/log"
	gsheet "bilancio/internal/sheets/google"
)

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(clearCmd)

	exportCmd.Flags().StringP("dir", "d", "export", "Directory receiving the CSV files")
	exportCmd.Flags().String("date", "", "Reference date YYYY-MM-DD (default today)")
	exportCmd.Flags().Bool("sheets", false, "Also write forecast, summary and budget to Google Sheets")

	importCmd.Flags().BoolP("force", "f", false, "Replace a ledger that already holds data")

	clearCmd.Flags().Bool("yes", false, "Confirm deleting every record")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the effective transactions to CSV files",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Load a data file saved by the desktop application",
	Long: `Replace the ledger with the content of a JSON data file. Every record
gets a new identifier and recurring definitions become monthly. The category
registry is kept and extended with the categories the file uses.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every transaction, definition, budget and goal",
	Args:  cobra.NoArgs,
	RunE:  runClear,
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	ref, err := referenceDate(cmd, app.Reports)
	if err != nil {
		return err
	}
	snap, err := app.Ledger.Snapshot(ctx)
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("dir")
	paths, err := export.WriteDir(dir, snap, ref)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	logger.Info("CSV export completed", log.FieldReference, ref.String(), "files", len(paths))

	if toSheets, _ := cmd.Flags().GetBool("sheets"); !toSheets {
		return nil
	}
	if !cfg.SheetsEnabled() {
		return errors.New("--sheets needs GOOGLE_SPREADSHEET_ID")
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
	}, logger)
	if err != nil {
		return err
	}

	rep, err := app.Reports.Build(ctx, core.TransactionFilter{}, ref)
	if err != nil {
		return err
	}
	statuses, err := app.Reports.MonthlyBudget(ctx, ref)
	if err != nil {
		return err
	}
	if err := client.WriteForecast(ctx, rep.Forecast.Reference, rep.Forecast.StartBalance, rep.Forecast.Points); err != nil {
		return err
	}
	if err := client.WriteSummary(ctx, rep.Summary); err != nil {
		return err
	}
	if err := client.WriteBudget(ctx, ref.Period(), statuses); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "spreadsheet %s updated\n", cfg.GoogleSpreadsheetID)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	snap, err := export.ReadLegacy(f)
	if err != nil {
		return fmt.Errorf("import %s: %w", args[0], err)
	}

	app, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer app.Close()

	current, err := app.Ledger.Snapshot(ctx)
	if err != nil {
		return err
	}
	if force, _ := cmd.Flags().GetBool("force"); !current.IsEmpty() && !force {
		return errors.New("the ledger already holds data; use --force to replace it")
	}
	if err := app.Ledger.Replace(ctx, snap); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "imported %d incomes, %d expenses, %d recurring definitions, %d budgets, %d goals\n",
		len(snap.Incomes), len(snap.Expenses), len(snap.RecurringIncomes)+len(snap.RecurringExpenses),
		len(snap.Budget), len(snap.Goals))
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		return errors.New("refusing to clear the ledger without --yes")
	}
	app, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Ledger.Clear(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ledger cleared")
	return nil
}
