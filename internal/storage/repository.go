package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/core"

	_ "modernc.org/sqlite"
)

// pragmas let concurrent readers coexist with the single writer.
const pragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Snapshot loads every table concurrently into one immutable view.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (core.Snapshot, error) {
	var (
		snap     core.Snapshot
		txs      []core.Transaction
		defs     []core.RecurringDefinition
		budget   core.BudgetLimits
		goals    []core.Goal
		category []string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { txs, err = r.listTransactions(ctx); return })
	g.Go(func() (err error) { defs, err = r.listRecurring(ctx); return })
	g.Go(func() (err error) { budget, err = r.listBudget(ctx); return })
	g.Go(func() (err error) { goals, err = r.listGoals(ctx); return })
	g.Go(func() (err error) { category, err = r.listCategories(ctx); return })
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}

	for _, tx := range txs {
		if tx.Kind == core.Income {
			snap.Incomes = append(snap.Incomes, tx)
		} else {
			snap.Expenses = append(snap.Expenses, tx)
		}
	}
	for _, def := range defs {
		if def.Kind == core.Income {
			snap.RecurringIncomes = append(snap.RecurringIncomes, def)
		} else {
			snap.RecurringExpenses = append(snap.RecurringExpenses, def)
		}
	}
	snap.Budget = budget
	snap.Goals = goals
	snap.Categories = category
	return snap.Clone(), nil
}

func (r *SQLiteRepository) listTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, date, description, amount_cents, category FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			tx   core.Transaction
			kind string
			date string
		)
		if err := rows.Scan(&tx.ID, &kind, &date, &tx.Description, &tx.Amount.Cents, &tx.Category); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Kind = core.Kind(kind)
		if tx.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) listRecurring(ctx context.Context) ([]core.RecurringDefinition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, start_date, frequency, repetitions, description, amount_cents, category
		 FROM recurring_definitions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list recurring definitions: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringDefinition
	for rows.Next() {
		var (
			def       core.RecurringDefinition
			kind      string
			start     string
			frequency string
		)
		if err := rows.Scan(&def.ID, &kind, &start, &frequency, &def.Repetitions, &def.Description, &def.Amount.Cents, &def.Category); err != nil {
			return nil, fmt.Errorf("scan recurring definition: %w", err)
		}
		def.Kind = core.Kind(kind)
		def.Frequency = core.Frequency(frequency)
		if def.StartDate, err = core.ParseDate(start); err != nil {
			return nil, fmt.Errorf("recurring definition %s: %w", def.ID, err)
		}
		out = append(out, def)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) listBudget(ctx context.Context) (core.BudgetLimits, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, limit_cents FROM budgets`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := core.BudgetLimits{}
	for rows.Next() {
		var (
			category string
			limit    core.Money
		)
		if err := rows.Scan(&category, &limit.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out[category] = limit
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) listGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, target_cents, current_cents, due_date FROM goals ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var (
			g   core.Goal
			due string
		)
		if err := rows.Scan(&g.ID, &g.Name, &g.Target.Cents, &g.Current.Cents, &due); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if g.DueDate, err = core.ParseDate(due); err != nil {
			return nil, fmt.Errorf("goal %s: %w", g.ID, err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) listCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, kind, date, description, amount_cents, category) VALUES (?, ?, ?, ?, ?, ?)`,
		tx.ID, string(tx.Kind), tx.Date.String(), tx.Description, tx.Amount.Cents, tx.Category)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET kind = ?, date = ?, description = ?, amount_cents = ?, category = ? WHERE id = ?`,
		string(tx.Kind), tx.Date.String(), tx.Description, tx.Amount.Cents, tx.Category, tx.ID)
	return affected(res, err, "update transaction", tx.ID)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	return affected(res, err, "delete transaction", id)
}

func (r *SQLiteRepository) AddRecurring(ctx context.Context, def core.RecurringDefinition) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_definitions (id, kind, start_date, frequency, repetitions, description, amount_cents, category)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		def.ID, string(def.Kind), def.StartDate.String(), string(def.Frequency), def.Repetitions, def.Description, def.Amount.Cents, def.Category)
	if err != nil {
		return fmt.Errorf("insert recurring definition: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, def core.RecurringDefinition) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_definitions
		 SET kind = ?, start_date = ?, frequency = ?, repetitions = ?, description = ?, amount_cents = ?, category = ?
		 WHERE id = ?`,
		string(def.Kind), def.StartDate.String(), string(def.Frequency), def.Repetitions, def.Description, def.Amount.Cents, def.Category, def.ID)
	return affected(res, err, "update recurring definition", def.ID)
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_definitions WHERE id = ?`, id)
	return affected(res, err, "delete recurring definition", id)
}

func (r *SQLiteRepository) SetBudget(ctx context.Context, category string, limit core.Money) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (category, limit_cents) VALUES (?, ?)
		 ON CONFLICT(category) DO UPDATE SET limit_cents = excluded.limit_cents`,
		core.NormalizeCategory(category), limit.Cents)
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, category string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE category = ?`, core.NormalizeCategory(category))
	return affected(res, err, "delete budget", category)
}

func (r *SQLiteRepository) AddGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO goals (id, name, target_cents, current_cents, due_date) VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Target.Cents, g.Current.Cents, g.DueDate.String())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert goal %q: %w", g.Name, core.ErrDuplicateGoal)
		}
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, target_cents = ?, current_cents = ?, due_date = ? WHERE id = ?`,
		g.Name, g.Target.Cents, g.Current.Cents, g.DueDate.String(), g.ID)
	if err != nil && isUniqueViolation(err) {
		return fmt.Errorf("update goal %q: %w", g.Name, core.ErrDuplicateGoal)
	}
	return affected(res, err, "update goal", g.ID)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	return affected(res, err, "delete goal", id)
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO categories (name) VALUES (?)`, core.NormalizeCategory(name))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("category %q: %w", name, core.ErrDuplicateCategory)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, core.NormalizeCategory(name))
	return affected(res, err, "delete category", name)
}

// Clear wipes the ledger tables in one transaction. Categories are kept.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "recurring_definitions", "budgets", "goals"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// affected maps "no row touched" to core.ErrNotFound.
func affected(res sql.Result, err error, op, id string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, core.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
