package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/services"
)

type moneyResponse struct {
	Amount string `json:"amount"`
	Cents  int64  `json:"cents"`
}

func toMoney(m core.Money) moneyResponse {
	return moneyResponse{Amount: m.String(), Cents: m.Cents}
}

type transactionResponse struct {
	ID          string        `json:"id"`
	Kind        core.Kind     `json:"kind"`
	Date        string        `json:"date"`
	Description string        `json:"description"`
	Amount      moneyResponse `json:"amount"`
	Category    string        `json:"category,omitempty"`
	Origin      string        `json:"origin"`
	SourceID    string        `json:"source_id,omitempty"`
}

func toTransaction(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Kind:        tx.Kind,
		Date:        tx.Date.String(),
		Description: tx.Description,
		Amount:      toMoney(tx.Amount),
		Category:    tx.Category,
		Origin:      tx.Origin.String(),
		SourceID:    tx.SourceID,
	}
}

func toTransactions(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransaction(tx))
	}
	return out
}

type recurringResponse struct {
	ID          string         `json:"id"`
	Kind        core.Kind      `json:"kind"`
	StartDate   string         `json:"start_date"`
	Frequency   core.Frequency `json:"frequency"`
	Repetitions int            `json:"repetitions"`
	Description string         `json:"description"`
	Amount      moneyResponse  `json:"amount"`
	Category    string         `json:"category,omitempty"`
}

func toRecurring(def core.RecurringDefinition) recurringResponse {
	return recurringResponse{
		ID:          def.ID,
		Kind:        def.Kind,
		StartDate:   def.StartDate.String(),
		Frequency:   def.Frequency,
		Repetitions: def.Repetitions,
		Description: def.Description,
		Amount:      toMoney(def.Amount),
		Category:    def.Category,
	}
}

func toRecurringList(defs []core.RecurringDefinition) []recurringResponse {
	out := make([]recurringResponse, 0, len(defs))
	for _, def := range defs {
		out = append(out, toRecurring(def))
	}
	return out
}

type budgetStatusResponse struct {
	Category  string           `json:"category"`
	Limit     moneyResponse    `json:"limit"`
	Spent     moneyResponse    `json:"spent"`
	Remaining moneyResponse    `json:"remaining"`
	State     core.BudgetState `json:"state"`
}

func toBudget(statuses []core.BudgetStatus) []budgetStatusResponse {
	out := make([]budgetStatusResponse, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, budgetStatusResponse{
			Category:  st.Category,
			Limit:     toMoney(st.Limit),
			Spent:     toMoney(st.Spent),
			Remaining: toMoney(st.Remaining),
			State:     st.State,
		})
	}
	return out
}

type goalResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Target    moneyResponse   `json:"target"`
	Current   moneyResponse   `json:"current"`
	DueDate   string          `json:"due_date"`
	Progress  float64         `json:"progress"`
	Remaining moneyResponse   `json:"remaining"`
	Status    core.GoalStatus `json:"status"`
}

func toGoal(g core.Goal, today core.Date) goalResponse {
	return goalResponse{
		ID:        g.ID,
		Name:      g.Name,
		Target:    toMoney(g.Target),
		Current:   toMoney(g.Current),
		DueDate:   g.DueDate.String(),
		Progress:  g.Progress(),
		Remaining: toMoney(g.Remaining()),
		Status:    g.Status(today),
	}
}

func toGoalViews(views []services.GoalView) []goalResponse {
	out := make([]goalResponse, 0, len(views))
	for _, v := range views {
		out = append(out, goalResponse{
			ID:        v.ID,
			Name:      v.Name,
			Target:    toMoney(v.Target),
			Current:   toMoney(v.Current),
			DueDate:   v.DueDate.String(),
			Progress:  v.Progress,
			Remaining: toMoney(v.Remaining),
			Status:    v.Status,
		})
	}
	return out
}

type categoryAmountResponse struct {
	Category string        `json:"category"`
	Amount   moneyResponse `json:"amount"`
}

type periodResponse struct {
	Period  string        `json:"period"`
	Income  moneyResponse `json:"income"`
	Expense moneyResponse `json:"expense"`
	Balance moneyResponse `json:"balance"`
}

type summaryResponse struct {
	Months []periodResponse `json:"months"`
	Years  []periodResponse `json:"years"`
}

func toPeriods(ps []core.PeriodTotals) []periodResponse {
	out := make([]periodResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, periodResponse{
			Period:  p.Period,
			Income:  toMoney(p.Income),
			Expense: toMoney(p.Expense),
			Balance: toMoney(p.Balance),
		})
	}
	return out
}

func toSummary(s core.Summary) summaryResponse {
	return summaryResponse{Months: toPeriods(s.Months), Years: toPeriods(s.Years)}
}

type forecastPointResponse struct {
	Month   string        `json:"month"`
	Balance moneyResponse `json:"balance"`
	Income  moneyResponse `json:"income"`
	Expense moneyResponse `json:"expense"`
}

type forecastResponse struct {
	Reference    string                  `json:"reference_date"`
	StartBalance moneyResponse           `json:"start_balance"`
	Points       []forecastPointResponse `json:"points"`
}

func toForecast(fr services.ForecastReport) forecastResponse {
	out := forecastResponse{
		Reference:    fr.Reference.String(),
		StartBalance: toMoney(fr.StartBalance),
		Points:       make([]forecastPointResponse, 0, len(fr.Points)),
	}
	for _, p := range fr.Points {
		out.Points = append(out.Points, forecastPointResponse{
			Month:   p.Month,
			Balance: toMoney(p.Balance),
			Income:  toMoney(p.Income),
			Expense: toMoney(p.Expense),
		})
	}
	return out
}

type filterResponse struct {
	Keyword  string `json:"keyword,omitempty"`
	Category string `json:"category,omitempty"`
	Month    string `json:"month,omitempty"`
	Year     string `json:"year,omitempty"`
}

type reportResponse struct {
	Reference         string                   `json:"reference_date"`
	Filter            filterResponse           `json:"filter"`
	TotalIncome       moneyResponse            `json:"total_income"`
	TotalExpense      moneyResponse            `json:"total_expense"`
	Balance           moneyResponse            `json:"balance"`
	ByCategory        []categoryAmountResponse `json:"by_category"`
	Budget            []budgetStatusResponse   `json:"budget"`
	Incomes           []transactionResponse    `json:"incomes"`
	Expenses          []transactionResponse    `json:"expenses"`
	RecurringIncomes  []recurringResponse      `json:"recurring_incomes"`
	RecurringExpenses []recurringResponse      `json:"recurring_expenses"`
	Summary           summaryResponse          `json:"summary"`
	Forecast          forecastResponse         `json:"forecast"`
	Goals             []goalResponse           `json:"goals"`
}

func toReport(rep *services.Report) reportResponse {
	out := reportResponse{
		Reference: rep.Reference.String(),
		Filter: filterResponse{
			Keyword:  rep.Filter.Keyword,
			Category: rep.Filter.Category,
			Month:    rep.Filter.Month,
			Year:     rep.Filter.Year,
		},
		TotalIncome:       toMoney(rep.TotalIncome),
		TotalExpense:      toMoney(rep.TotalExpense),
		Balance:           toMoney(rep.Balance),
		ByCategory:        make([]categoryAmountResponse, 0, len(rep.ByCategory)),
		Budget:            toBudget(rep.Budget),
		Incomes:           toTransactions(rep.Incomes),
		Expenses:          toTransactions(rep.Expenses),
		RecurringIncomes:  toRecurringList(rep.RecurringIncomes),
		RecurringExpenses: toRecurringList(rep.RecurringExpenses),
		Summary:           toSummary(rep.Summary),
		Forecast:          toForecast(rep.Forecast),
		Goals:             toGoalViews(rep.Goals),
	}
	for _, c := range rep.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryAmountResponse{Category: c.Name, Amount: toMoney(c.Amount)})
	}
	return out
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"status":  status,
		},
	})
}

// errorStatus maps ledger errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateGoal), errors.Is(err, core.ErrDuplicateCategory):
		return http.StatusConflict
	case core.IsValidationError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with its mapped status. Internal errors are
// logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
