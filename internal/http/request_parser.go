package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"bilancio/internal/core"
)

const (
	maxBodyBytes = 1 << 20
	maxHorizon   = 120
)

// errBadRequest marks malformed requests: undecodable bodies and query
// parameters.
var errBadRequest = errors.New("bad request")

var (
	monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	yearPattern  = regexp.MustCompile(`^\d{4}$`)
)

// amount accepts both JSON numbers and strings. Strings may use a comma as
// the decimal separator.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string: %s", b)
	}
	*a = amount(n.String())
	return nil
}

type transactionRequest struct {
	Kind        string `json:"kind"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      amount `json:"amount"`
	Category    string `json:"category"`
}

func (req transactionRequest) toCore(id string) (core.Transaction, error) {
	date, err := core.ParseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	money, err := core.ParseMoney(string(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          id,
		Kind:        core.Kind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Date:        date,
		Description: sanitizeInput(req.Description),
		Amount:      money,
		Category:    sanitizeInput(req.Category),
	}, nil
}

type recurringRequest struct {
	Kind        string `json:"kind"`
	StartDate   string `json:"start_date"`
	Frequency   string `json:"frequency"`
	Repetitions int    `json:"repetitions"`
	Description string `json:"description"`
	Amount      amount `json:"amount"`
	Category    string `json:"category"`
}

func (req recurringRequest) toCore(id string) (core.RecurringDefinition, error) {
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.RecurringDefinition{}, err
	}
	money, err := core.ParseMoney(string(req.Amount))
	if err != nil {
		return core.RecurringDefinition{}, err
	}
	return core.RecurringDefinition{
		ID:          id,
		Kind:        core.Kind(strings.ToLower(strings.TrimSpace(req.Kind))),
		StartDate:   start,
		Frequency:   core.Frequency(strings.ToLower(strings.TrimSpace(req.Frequency))),
		Repetitions: req.Repetitions,
		Description: sanitizeInput(req.Description),
		Amount:      money,
		Category:    sanitizeInput(req.Category),
	}, nil
}

type budgetRequest struct {
	Limit amount `json:"limit"`
}

type goalRequest struct {
	Name    string `json:"name"`
	Target  amount `json:"target"`
	Current amount `json:"current"`
	DueDate string `json:"due_date"`
}

func (req goalRequest) toCore(id string) (core.Goal, error) {
	due, err := core.ParseDate(req.DueDate)
	if err != nil {
		return core.Goal{}, err
	}
	target, err := core.ParseMoney(string(req.Target))
	if err != nil {
		return core.Goal{}, err
	}
	current := core.Money{}
	if req.Current != "" {
		if current, err = core.ParseNonNegativeMoney(string(req.Current)); err != nil {
			return core.Goal{}, err
		}
	}
	return core.Goal{
		ID:      id,
		Name:    sanitizeInput(req.Name),
		Target:  target,
		Current: current,
		DueDate: due,
	}, nil
}

type categoryRequest struct {
	Name string `json:"name"`
}

// decodeJSON reads a single JSON document of at most maxBodyBytes into v.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return nil
}

// parseFilter reads the keyword, category, month and year report filters.
func parseFilter(query url.Values) (core.TransactionFilter, error) {
	f := core.TransactionFilter{
		Keyword:  sanitizeInput(query.Get("keyword")),
		Category: sanitizeInput(query.Get("category")),
		Month:    strings.TrimSpace(query.Get("month")),
		Year:     strings.TrimSpace(query.Get("year")),
	}
	if f.Month != "" && !monthPattern.MatchString(f.Month) {
		return core.TransactionFilter{}, fmt.Errorf("%w: month must be YYYY-MM", errBadRequest)
	}
	if f.Year != "" && !yearPattern.MatchString(f.Year) {
		return core.TransactionFilter{}, fmt.Errorf("%w: year must be YYYY", errBadRequest)
	}
	return f, nil
}

// parseReference reads the "date" parameter, defaulting to today.
func parseReference(query url.Values, today core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get("date"))
	if v == "" {
		return today, nil
	}
	ref, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return ref, nil
}

// parseHorizon reads the "months" parameter. Zero selects the configured
// horizon.
func parseHorizon(query url.Values) (int, error) {
	v := strings.TrimSpace(query.Get("months"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > maxHorizon {
		return 0, fmt.Errorf("%w: months must be an integer between 0 and %d", errBadRequest, maxHorizon)
	}
	return n, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
