package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
	"bilancio/internal/metrics"
)

// EventPublisher announces ledger changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// LedgerService is the only write path into the ledger. It validates input,
// assigns identifiers, persists through the store and announces every change.
type LedgerService struct {
	store    ledger.Store
	events   EventPublisher
	logger   *log.Logger
	audit    *log.StructuredLogger
	onChange []func()
	newID    func() string

	// serializes the read-check-write of goal names
	goalMu sync.Mutex
}

// NewLedgerService wires a store, an optional publisher and a logger. A nil
// publisher disables change events.
func NewLedgerService(store ledger.Store, events EventPublisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &LedgerService{
		store:  store,
		events: events,
		logger: logger,
		audit:  log.NewStructuredLogger(logger),
		newID:  uuid.NewString,
	}
}

// OnChange registers fn to run after every successful mutation.
func (s *LedgerService) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

// Snapshot exposes the current ledger for read-only callers.
func (s *LedgerService) Snapshot(ctx context.Context) (core.Snapshot, error) {
	return s.store.Snapshot(ctx)
}

// AddTransaction stores a new one-time income or expense and returns it with
// its assigned ID.
func (s *LedgerService) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx = normalizeTransaction(tx)
	tx.ID = s.newID()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.AddTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("add %s: %w", tx.Kind, err)
	}
	s.registerCategory(ctx, tx.Category)
	s.changed(ctx, amqp.EntityTransaction, log.OpCreate, tx.ID)
	return tx, nil
}

// UpdateTransaction replaces the record with tx.ID. The kind may change.
func (s *LedgerService) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if strings.TrimSpace(tx.ID) == "" {
		return core.Transaction{}, core.ErrNotFound
	}
	tx = normalizeTransaction(tx)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update %s %s: %w", tx.Kind, tx.ID, err)
	}
	s.registerCategory(ctx, tx.Category)
	s.changed(ctx, amqp.EntityTransaction, log.OpUpdate, tx.ID)
	return tx, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	s.changed(ctx, amqp.EntityTransaction, log.OpDelete, id)
	return nil
}

// AddRecurring stores a new recurring definition. An empty frequency means
// monthly.
func (s *LedgerService) AddRecurring(ctx context.Context, def core.RecurringDefinition) (core.RecurringDefinition, error) {
	def = normalizeRecurring(def)
	def.ID = s.newID()
	if err := def.Validate(); err != nil {
		return core.RecurringDefinition{}, err
	}
	if err := s.store.AddRecurring(ctx, def); err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("add recurring %s: %w", def.Kind, err)
	}
	s.registerCategory(ctx, def.Category)
	s.changed(ctx, amqp.EntityRecurring, log.OpCreate, def.ID)
	return def, nil
}

func (s *LedgerService) UpdateRecurring(ctx context.Context, def core.RecurringDefinition) (core.RecurringDefinition, error) {
	if strings.TrimSpace(def.ID) == "" {
		return core.RecurringDefinition{}, core.ErrNotFound
	}
	def = normalizeRecurring(def)
	if err := def.Validate(); err != nil {
		return core.RecurringDefinition{}, err
	}
	if err := s.store.UpdateRecurring(ctx, def); err != nil {
		return core.RecurringDefinition{}, fmt.Errorf("update recurring %s: %w", def.ID, err)
	}
	s.registerCategory(ctx, def.Category)
	s.changed(ctx, amqp.EntityRecurring, log.OpUpdate, def.ID)
	return def, nil
}

func (s *LedgerService) DeleteRecurring(ctx context.Context, id string) error {
	if err := s.store.DeleteRecurring(ctx, id); err != nil {
		return fmt.Errorf("delete recurring %s: %w", id, err)
	}
	s.changed(ctx, amqp.EntityRecurring, log.OpDelete, id)
	return nil
}

// SetBudget sets the limit of a category, replacing any previous one.
func (s *LedgerService) SetBudget(ctx context.Context, category string, limit core.Money) error {
	category = core.NormalizeCategory(category)
	if category == "" {
		return core.ErrEmptyCategory
	}
	if err := core.ValidateLimit(limit); err != nil {
		return err
	}
	if err := s.store.SetBudget(ctx, category, limit); err != nil {
		return fmt.Errorf("set budget %s: %w", category, err)
	}
	s.registerCategory(ctx, category)
	s.changed(ctx, amqp.EntityBudget, log.OpUpdate, category)
	return nil
}

func (s *LedgerService) DeleteBudget(ctx context.Context, category string) error {
	category = core.NormalizeCategory(category)
	if err := s.store.DeleteBudget(ctx, category); err != nil {
		return fmt.Errorf("delete budget %s: %w", category, err)
	}
	s.changed(ctx, amqp.EntityBudget, log.OpDelete, category)
	return nil
}

// AddGoal stores a new savings goal. Names are unique, case-insensitively.
func (s *LedgerService) AddGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.ID = s.newID()
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	s.goalMu.Lock()
	defer s.goalMu.Unlock()
	if err := s.checkGoalName(ctx, g); err != nil {
		return core.Goal{}, err
	}
	if err := s.store.AddGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("add goal: %w", err)
	}
	s.changed(ctx, amqp.EntityGoal, log.OpCreate, g.ID)
	return g, nil
}

func (s *LedgerService) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if strings.TrimSpace(g.ID) == "" {
		return core.Goal{}, core.ErrNotFound
	}
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	s.goalMu.Lock()
	defer s.goalMu.Unlock()
	if err := s.checkGoalName(ctx, g); err != nil {
		return core.Goal{}, err
	}
	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	s.changed(ctx, amqp.EntityGoal, log.OpUpdate, g.ID)
	return g, nil
}

func (s *LedgerService) DeleteGoal(ctx context.Context, id string) error {
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	s.changed(ctx, amqp.EntityGoal, log.OpDelete, id)
	return nil
}

// checkGoalName rejects g when another goal already carries its name.
func (s *LedgerService) checkGoalName(ctx context.Context, g core.Goal) error {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("load goals: %w", err)
	}
	for _, other := range snap.Goals {
		if other.ID != g.ID && other.SameName(g.Name) {
			return core.ErrDuplicateGoal
		}
	}
	return nil
}

// AddCategory registers an expense category. Duplicates return
// core.ErrDuplicateCategory.
func (s *LedgerService) AddCategory(ctx context.Context, name string) error {
	name = core.NormalizeCategory(name)
	if name == "" {
		return core.ErrEmptyCategory
	}
	if err := s.store.AddCategory(ctx, name); err != nil {
		return fmt.Errorf("add category %s: %w", name, err)
	}
	s.changed(ctx, amqp.EntityCategory, log.OpCreate, name)
	return nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, name string) error {
	name = core.NormalizeCategory(name)
	if err := s.store.DeleteCategory(ctx, name); err != nil {
		return fmt.Errorf("delete category %s: %w", name, err)
	}
	s.changed(ctx, amqp.EntityCategory, log.OpDelete, name)
	return nil
}

// Clear removes every transaction, definition, budget and goal. The category
// registry survives.
func (s *LedgerService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	s.changed(ctx, amqp.EntityLedger, log.OpClear, "")
	return nil
}

// Replace swaps the ledger content with snap, as an import does.
func (s *LedgerService) Replace(ctx context.Context, snap core.Snapshot) error {
	if err := ledger.Replace(ctx, s.store, snap); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	s.changed(ctx, amqp.EntityLedger, log.OpImport, "")
	return nil
}

// Close releases the store and the publisher when it can be closed.
func (s *LedgerService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if closer, ok := s.events.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}

// registerCategory adds a used expense category to the registry.
func (s *LedgerService) registerCategory(ctx context.Context, category string) {
	if category == "" {
		return
	}
	err := s.store.AddCategory(ctx, category)
	if err != nil && !errors.Is(err, core.ErrDuplicateCategory) {
		s.logger.WarnContext(ctx, "Failed to register category", log.FieldCategory, category, log.FieldError, err)
	}
}

func (s *LedgerService) changed(ctx context.Context, entity, op, id string) {
	metrics.LedgerMutations.WithLabelValues(entity, op).Inc()
	s.audit.LogMutation(ctx, op, entity, id)
	for _, fn := range s.onChange {
		fn()
	}

	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerChanged(ctx, amqp.NewLedgerChangedMessage(entity, op, id)); err != nil {
		// The store already holds the change.
		s.logger.ErrorContext(ctx, "Failed to publish ledger change",
			log.FieldEntity, entity, log.FieldID, id, log.FieldError, err)
	}
}

func normalizeTransaction(tx core.Transaction) core.Transaction {
	tx.Description = strings.TrimSpace(tx.Description)
	tx.Origin = core.OneTime
	tx.SourceID = ""
	if tx.Kind == core.Income {
		tx.Category = ""
	} else {
		tx.Category = core.NormalizeCategory(tx.Category)
	}
	return tx
}

func normalizeRecurring(def core.RecurringDefinition) core.RecurringDefinition {
	def.Description = strings.TrimSpace(def.Description)
	if def.Frequency == "" {
		def.Frequency = core.Monthly
	}
	if def.Kind == core.Income {
		def.Category = ""
	} else {
		def.Category = core.NormalizeCategory(def.Category)
	}
	return def
}
