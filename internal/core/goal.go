package core

import "strings"

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalOverdue   GoalStatus = "overdue"
)

type (
	GoalStatus string

	// Goal is a savings target with a due date.
	Goal struct {
		ID      string
		Name    string
		Target  Money
		Current Money
		DueDate Date
	}
)

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyGoalName
	}
	if err := g.Target.Validate(); err != nil {
		return err
	}
	if g.Current.IsNegative() {
		return ErrNegativeAmount
	}
	return g.DueDate.Validate()
}

// SameName compares goal names the way uniqueness is enforced.
func (g Goal) SameName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(g.Name), strings.TrimSpace(name))
}

// Progress is the saved share of the target, in percent. It can exceed 100.
func (g Goal) Progress() float64 {
	if g.Target.Cents <= 0 {
		return 0
	}
	return float64(g.Current.Cents) / float64(g.Target.Cents) * 100
}

// Remaining is what is left to save, never below zero.
func (g Goal) Remaining() Money {
	r := g.Target.Sub(g.Current)
	if r.IsNegative() {
		return Money{}
	}
	return r
}

// Status classifies the goal on day today. A reached target wins over a
// passed due date.
func (g Goal) Status(today Date) GoalStatus {
	switch {
	case g.Current.Cents >= g.Target.Cents:
		return GoalCompleted
	case g.DueDate.Before(today.Time):
		return GoalOverdue
	default:
		return GoalActive
	}
}
