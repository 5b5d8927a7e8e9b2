package mongostore

import (
	"time"

	"bilancio/internal/core"
)

type transactionDoc struct {
	ID          string    `bson:"_id"`
	Kind        string    `bson:"kind"`
	Date        string    `bson:"date"`
	Description string    `bson:"description"`
	AmountCents int64     `bson:"amount_cents"`
	Category    string    `bson:"category,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	Seq         int64     `bson:"seq"`
}

type recurringDoc struct {
	ID          string    `bson:"_id"`
	Kind        string    `bson:"kind"`
	StartDate   string    `bson:"start_date"`
	Frequency   string    `bson:"frequency"`
	Repetitions int       `bson:"repetitions"`
	Description string    `bson:"description"`
	AmountCents int64     `bson:"amount_cents"`
	Category    string    `bson:"category,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	Seq         int64     `bson:"seq"`
}

type budgetDoc struct {
	Category   string `bson:"_id"`
	LimitCents int64  `bson:"limit_cents"`
}

type goalDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	TargetCents  int64     `bson:"target_cents"`
	CurrentCents int64     `bson:"current_cents"`
	DueDate      string    `bson:"due_date"`
	CreatedAt    time.Time `bson:"created_at"`
	Seq          int64     `bson:"seq"`
}

type categoryDoc struct {
	Name string `bson:"_id"`
}

func toTransactionDoc(tx core.Transaction, created time.Time, seq int64) transactionDoc {
	return transactionDoc{
		ID:          tx.ID,
		Kind:        string(tx.Kind),
		Date:        tx.Date.String(),
		Description: tx.Description,
		AmountCents: tx.Amount.Cents,
		Category:    tx.Category,
		CreatedAt:   created,
		Seq:         seq,
	}
}

func (d transactionDoc) toCore() (core.Transaction, error) {
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          d.ID,
		Kind:        core.Kind(d.Kind),
		Date:        date,
		Description: d.Description,
		Amount:      core.Money{Cents: d.AmountCents},
		Category:    d.Category,
	}, nil
}

func toRecurringDoc(def core.RecurringDefinition, created time.Time, seq int64) recurringDoc {
	return recurringDoc{
		ID:          def.ID,
		Kind:        string(def.Kind),
		StartDate:   def.StartDate.String(),
		Frequency:   string(def.Frequency),
		Repetitions: def.Repetitions,
		Description: def.Description,
		AmountCents: def.Amount.Cents,
		Category:    def.Category,
		CreatedAt:   created,
		Seq:         seq,
	}
}

func (d recurringDoc) toCore() (core.RecurringDefinition, error) {
	start, err := core.ParseDate(d.StartDate)
	if err != nil {
		return core.RecurringDefinition{}, err
	}
	return core.RecurringDefinition{
		ID:          d.ID,
		Kind:        core.Kind(d.Kind),
		StartDate:   start,
		Frequency:   core.Frequency(d.Frequency),
		Repetitions: d.Repetitions,
		Description: d.Description,
		Amount:      core.Money{Cents: d.AmountCents},
		Category:    d.Category,
	}, nil
}

func toGoalDoc(g core.Goal, created time.Time, seq int64) goalDoc {
	return goalDoc{
		ID:           g.ID,
		Name:         g.Name,
		TargetCents:  g.Target.Cents,
		CurrentCents: g.Current.Cents,
		DueDate:      g.DueDate.String(),
		CreatedAt:    created,
		Seq:          seq,
	}
}

func (d goalDoc) toCore() (core.Goal, error) {
	due, err := core.ParseDate(d.DueDate)
	if err != nil {
		return core.Goal{}, err
	}
	return core.Goal{
		ID:      d.ID,
		Name:    d.Name,
		Target:  core.Money{Cents: d.TargetCents},
		Current: core.Money{Cents: d.CurrentCents},
		DueDate: due,
	}, nil
}
