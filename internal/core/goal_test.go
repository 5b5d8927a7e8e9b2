package core

import (
	"errors"
	"testing"
)

func TestGoalValidate(t *testing.T) {
	good := Goal{Name: "Car", Target: Money{Cents: 100000}, DueDate: NewDate(2026, 1, 1)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	cases := []struct {
		name string
		g    Goal
		want error
	}{
		{"empty name", Goal{Name: " ", Target: Money{Cents: 1}, DueDate: NewDate(2026, 1, 1)}, ErrEmptyGoalName},
		{"zero target", Goal{Name: "x", DueDate: NewDate(2026, 1, 1)}, ErrInvalidAmount},
		{"negative current", Goal{Name: "x", Target: Money{Cents: 1}, Current: Money{Cents: -1}, DueDate: NewDate(2026, 1, 1)}, ErrNegativeAmount},
		{"missing due date", Goal{Name: "x", Target: Money{Cents: 1}}, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.g.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestGoalStatus(t *testing.T) {
	today := NewDate(2025, 6, 1)
	cases := []struct {
		name    string
		current int64
		due     Date
		want    GoalStatus
	}{
		{"active", 100, NewDate(2025, 12, 1), GoalActive},
		{"due today is still active", 100, today, GoalActive},
		{"overdue", 100, NewDate(2025, 5, 31), GoalOverdue},
		{"completed beats overdue", 1000, NewDate(2025, 1, 1), GoalCompleted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := Goal{Name: "g", Target: Money{Cents: 1000}, Current: Money{Cents: tc.current}, DueDate: tc.due}
			if got := g.Status(today); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestGoalProgressAndRemaining(t *testing.T) {
	g := Goal{Target: Money{Cents: 2000}, Current: Money{Cents: 500}}
	if g.Progress() != 25 {
		t.Fatalf("got %v", g.Progress())
	}
	if g.Remaining().Cents != 1500 {
		t.Fatalf("got %v", g.Remaining())
	}
	over := Goal{Target: Money{Cents: 100}, Current: Money{Cents: 150}}
	if !over.Remaining().IsZero() || over.Progress() != 150 {
		t.Fatalf("got %v / %v", over.Remaining(), over.Progress())
	}
	if !(Goal{Name: "Car "}).SameName("car") {
		t.Fatal("names should compare case-insensitively")
	}
}

func TestSnapshotClone(t *testing.T) {
	s := Snapshot{
		Incomes: []Transaction{{ID: "a"}},
		Budget:  BudgetLimits{"food": {Cents: 1}},
	}
	c := s.Clone()
	c.Incomes[0].ID = "changed"
	c.Budget["food"] = Money{Cents: 2}
	if s.Incomes[0].ID != "a" || s.Budget["food"].Cents != 1 {
		t.Fatal("clone shares memory with the original")
	}
	if c.Expenses == nil || c.Goals == nil {
		t.Fatal("clone should have non-nil collections")
	}
	if !(Snapshot{}).IsEmpty() || s.IsEmpty() {
		t.Fatal("IsEmpty mismatch")
	}
}
