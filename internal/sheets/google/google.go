package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/core"
	"bilancio/internal/log"
	ports "bilancio/internal/sheets"
)

const (
	summarySheet = "Summary"
	budgetSheet  = "Budget"
)

var _ ports.Exporter = (*Client)(nil)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID      string
	SheetName          string // forecast tab
	ServiceAccountFile string
	ServiceAccountJSON string
}

// valuesAPI is the subset of the Sheets values API the exporter needs.
type valuesAPI interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

type Client struct {
	values        valuesAPI
	spreadsheetID string
	forecastSheet string
	summarySheet  string
	budgetSheet   string
	logger        *log.Logger
}

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(serviceValues{svc: svc}, spreadsheetID, cfg.SheetName, time.Now().Year(), logger), nil
}

func newClient(values valuesAPI, spreadsheetID, forecastSheet string, year int, logger *log.Logger) *Client {
	forecastSheet = strings.TrimSpace(forecastSheet)
	if forecastSheet == "" {
		forecastSheet = "Forecast"
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		values:        values,
		spreadsheetID: spreadsheetID,
		forecastSheet: forecastSheet,
		summarySheet:  summarySheet,
		budgetSheet:   yearPrefixedName(budgetSheet, year),
		logger:        logger,
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Falls back to GOOGLE_APPLICATION_CREDENTIALS when the config names none.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		logger.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteForecast replaces the forecast tab: one row per projected month after
// a row holding the starting balance.
func (c *Client) WriteForecast(ctx context.Context, ref core.Date, start core.Money, points []core.ForecastPoint) error {
	rows := [][]any{
		{"Month", "Income", "Expense", "Balance"},
		{ref.Period(), "", "", start.Float64()},
	}
	for _, p := range points {
		rows = append(rows, []any{p.Month, p.Income.Float64(), p.Expense.Float64(), p.Balance.Float64()})
	}
	return c.replace(ctx, c.forecastSheet, "A:D", rows)
}

// WriteSummary replaces the summary tab with the monthly series followed by
// the yearly roll-up.
func (c *Client) WriteSummary(ctx context.Context, summary core.Summary) error {
	rows := [][]any{{"Period", "Income", "Expense", "Balance"}}
	for _, p := range summary.Months {
		rows = append(rows, periodRow(p))
	}
	for _, p := range summary.Years {
		rows = append(rows, periodRow(p))
	}
	return c.replace(ctx, c.summarySheet, "A:D", rows)
}

func (c *Client) WriteBudget(ctx context.Context, month string, statuses []core.BudgetStatus) error {
	rows := [][]any{{"Month", "Category", "Limit", "Spent", "Remaining", "State"}}
	for _, st := range statuses {
		rows = append(rows, []any{
			month,
			core.DisplayCategory(st.Category),
			st.Limit.Float64(),
			st.Spent.Float64(),
			st.Remaining.Float64(),
			string(st.State),
		})
	}
	return c.replace(ctx, c.budgetSheet, "A:F", rows)
}

func (c *Client) replace(ctx context.Context, sheet, cols string, rows [][]any) error {
	if c.values == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.values.Clear(ctx, c.spreadsheetID, fmt.Sprintf("%s!%s", sheet, cols)); err != nil {
		return fmt.Errorf("failed to clear sheet %s: %w", sheet, err)
	}
	if err := c.values.Update(ctx, c.spreadsheetID, fmt.Sprintf("%s!A1", sheet), rows); err != nil {
		return fmt.Errorf("failed to update sheet %s: %w", sheet, err)
	}
	c.logger.DebugContext(ctx, "Sheet written", "sheet", sheet, "rows", len(rows))
	return nil
}

func periodRow(p core.PeriodTotals) []any {
	return []any{p.Period, p.Income.Float64(), p.Expense.Float64(), p.Balance.Float64()}
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// serviceValues adapts *gsheet.Service to valuesAPI.
type serviceValues struct {
	svc *gsheet.Service
}

func (s serviceValues) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (s serviceValues) Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	vr := &gsheet.ValueRange{Values: rows}
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	return err
}
