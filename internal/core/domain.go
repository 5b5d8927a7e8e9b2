package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Monthly Frequency = "monthly"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	OneTime Origin = iota
	RecurringDerived
)

const (
	// DateLayout is the ISO calendar date used for every stored date.
	DateLayout = "2006-01-02"
	// PeriodLayout is the "YYYY-MM" bucket used by aggregation and forecasting.
	PeriodLayout = "2006-01"

	maxDescriptionLen = 200
)

type (
	Frequency string

	Kind string

	// Origin tells stored one-time records apart from records synthesized
	// out of a recurring definition.
	Origin int

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string
		Kind        Kind
		Date        Date
		Description string
		Amount      Money
		Category    string // expenses only
		Origin      Origin
		SourceID    string // recurring definition a derived record comes from
	}

	RecurringDefinition struct {
		ID          string
		Kind        Kind
		StartDate   Date
		Frequency   Frequency
		Repetitions int
		Description string
		Amount      Money
		Category    string // expenses only
	}
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrInvalidKind        = errors.New("invalid transaction kind")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidRepetitions = errors.New("repetitions must be a positive integer")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory      = errors.New("empty category")
	ErrEmptyGoalName      = errors.New("empty goal name")
	ErrDuplicateGoal      = errors.New("goal with the same name already exists")
	ErrDuplicateCategory  = errors.New("category already exists")
	ErrNotFound           = errors.New("not found")
)

var validationErrors = []error{
	ErrInvalidDate,
	ErrInvalidAmount,
	ErrNegativeAmount,
	ErrInvalidKind,
	ErrInvalidFrequency,
	ErrInvalidRepetitions,
	ErrEmptyDescription,
	ErrDescriptionTooLong,
	ErrEmptyCategory,
	ErrEmptyGoalName,
}

// IsValidationError reports whether err is caused by rejected user input.
func IsValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// Period returns the "YYYY-MM" bucket of the date.
func (d Date) Period() string {
	return d.Format(PeriodLayout)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// monthAfter reports whether d falls in a later calendar month than ref.
func (d Date) monthAfter(ref Date) bool {
	return d.Year() > ref.Year() || (d.Year() == ref.Year() && d.Month() > ref.Month())
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func (o Origin) String() string {
	if o == RecurringDerived {
		return "recurring"
	}
	return "one_time"
}

// NormalizeCategory is the canonical key form for categories.
func NormalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	return nil
}

func validateCategory(kind Kind, category string) error {
	if kind == Expense && NormalizeCategory(category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return validateCategory(t.Kind, t.Category)
}

func (r RecurringDefinition) Validate() error {
	if !r.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := r.StartDate.Validate(); err != nil {
		return err
	}
	if !r.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if r.Repetitions <= 0 {
		return ErrInvalidRepetitions
	}
	if err := validateDescription(r.Description); err != nil {
		return err
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	return validateCategory(r.Kind, r.Category)
}
