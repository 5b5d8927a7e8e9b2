package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bilancio/internal/core"
	"bilancio/internal/services"
)

func init() {
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(forecastCmd)

	reportCmd.Flags().String("date", "", "Reference date YYYY-MM-DD (default today)")
	reportCmd.Flags().StringP("keyword", "k", "", "Keep records whose description contains this text")
	reportCmd.Flags().StringP("category", "c", "", "Keep expenses of this category")
	reportCmd.Flags().StringP("month", "m", "", "Keep records of this month (YYYY-MM)")
	reportCmd.Flags().StringP("year", "y", "", "Keep records of this year (YYYY)")

	forecastCmd.Flags().String("date", "", "Reference date YYYY-MM-DD (default today)")
	forecastCmd.Flags().IntP("months", "n", 0, "Months to project (default FORECAST_MONTHS)")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print totals, budget, goals and forecast",
	Long: `Print the financial report at a reference date. Recurring definitions
contribute every occurrence up to the reference month. Filters narrow the
totals, the category breakdown and the budget; the monthly summary and the
forecast always cover the whole ledger.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Project the balance over the coming months",
	Args:  cobra.NoArgs,
	RunE:  runForecast,
}

func runReport(cmd *cobra.Command, _ []string) error {
	app, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer app.Close()

	ref, err := referenceDate(cmd, app.Reports)
	if err != nil {
		return err
	}
	var f core.TransactionFilter
	f.Keyword, _ = cmd.Flags().GetString("keyword")
	f.Category, _ = cmd.Flags().GetString("category")
	f.Month, _ = cmd.Flags().GetString("month")
	f.Year, _ = cmd.Flags().GetString("year")

	rep, err := app.Reports.Build(cmd.Context(), f, ref)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), rep)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	app, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer app.Close()

	ref, err := referenceDate(cmd, app.Reports)
	if err != nil {
		return err
	}
	months, _ := cmd.Flags().GetInt("months")
	if months < 0 {
		return fmt.Errorf("--months must not be negative")
	}
	fr, err := app.Reports.Forecast(cmd.Context(), ref, months)
	if err != nil {
		return err
	}
	return printForecast(cmd.OutOrStdout(), *fr)
}

func printReport(out io.Writer, rep *services.Report) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(out, "Report at %s\n\n", rep.Reference)
	fmt.Fprintf(tw, "Income\t%s\t\n", rep.TotalIncome)
	fmt.Fprintf(tw, "Expense\t%s\t\n", rep.TotalExpense)
	fmt.Fprintf(tw, "Balance\t%s\t\n", rep.Balance)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(rep.ByCategory) > 0 {
		fmt.Fprintln(out, "\nExpenses by category")
		for _, c := range rep.ByCategory {
			fmt.Fprintf(tw, "%s\t%s\t\n", core.DisplayCategory(c.Name), c.Amount)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(rep.Budget) > 0 {
		fmt.Fprintln(out, "\nBudget")
		fmt.Fprintf(tw, "Category\tLimit\tSpent\tRemaining\tState\t\n")
		for _, st := range rep.Budget {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", core.DisplayCategory(st.Category), st.Limit, st.Spent, st.Remaining, st.State)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(rep.Goals) > 0 {
		fmt.Fprintln(out, "\nGoals")
		fmt.Fprintf(tw, "Name\tSaved\tTarget\tProgress\tDue\tStatus\t\n")
		for _, g := range rep.Goals {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\t%s\t%s\t\n", g.Name, g.Current, g.Target, g.Progress, g.DueDate, g.Status)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(rep.Summary.Months) > 0 {
		fmt.Fprintln(out, "\nMonthly summary")
		fmt.Fprintf(tw, "Month\tIncome\tExpense\tBalance\t\n")
		for _, p := range rep.Summary.Months {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", p.Period, p.Income, p.Expense, p.Balance)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(out)
	return printForecast(out, rep.Forecast)
}

func printForecast(out io.Writer, fr services.ForecastReport) error {
	fmt.Fprintf(out, "Forecast from %s, current balance %s\n", fr.Reference, fr.StartBalance)
	if len(fr.Points) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Month\tIncome\tExpense\tBalance\t\n")
	for _, p := range fr.Points {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", p.Month, p.Income, p.Expense, p.Balance)
	}
	return tw.Flush()
}
