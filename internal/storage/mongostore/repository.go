package mongostore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/core"
)

// Repository implements ledger.Store on MongoDB.
type Repository struct {
	provider CollectionProvider
	client   *mongo.Client
	now      func() time.Time

	mu      sync.Mutex
	lastSeq int64
}

// NewRepository builds a store over the given collections. client may be nil
// in tests; Close then does nothing.
func NewRepository(provider CollectionProvider, client *mongo.Client) *Repository {
	return &Repository{provider: provider, client: client, now: time.Now}
}

// Open connects to uri and returns a store over database.
func Open(ctx context.Context, uri, database string) (*Repository, error) {
	client, err := Connect(ctx, uri)
	if err != nil {
		return nil, err
	}
	return NewRepository(DatabaseProvider{db: client.Database(database)}, client), nil
}

func (r *Repository) Close() error {
	if r.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// Ping is used by the readiness probe.
func (r *Repository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx, nil)
}

// nextSeq returns a strictly increasing insertion number seeded from the
// clock in nanoseconds. created_at alone ties within a millisecond.
func (r *Repository) nextSeq() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.now().UnixNano()
	if n <= r.lastSeq {
		n = r.lastSeq + 1
	}
	r.lastSeq = n
	return n
}

// bySeq orders documents by insertion. Updates never touch seq.
var bySeq = options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

func (r *Repository) Snapshot(ctx context.Context) (core.Snapshot, error) {
	var (
		txDocs  []transactionDoc
		recDocs []recurringDoc
		budDocs []budgetDoc
		goaDocs []goalDoc
		catDocs []categoryDoc
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.findAll(ctx, TransactionsCollection, bySeq, &txDocs) })
	g.Go(func() error { return r.findAll(ctx, RecurringCollection, bySeq, &recDocs) })
	g.Go(func() error { return r.findAll(ctx, BudgetsCollection, nil, &budDocs) })
	g.Go(func() error { return r.findAll(ctx, GoalsCollection, bySeq, &goaDocs) })
	g.Go(func() error {
		return r.findAll(ctx, CategoriesCollection, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}), &catDocs)
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}

	var snap core.Snapshot
	for _, d := range txDocs {
		tx, err := d.toCore()
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("transaction %s: %w", d.ID, err)
		}
		if tx.Kind == core.Income {
			snap.Incomes = append(snap.Incomes, tx)
		} else {
			snap.Expenses = append(snap.Expenses, tx)
		}
	}
	for _, d := range recDocs {
		def, err := d.toCore()
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("recurring definition %s: %w", d.ID, err)
		}
		if def.Kind == core.Income {
			snap.RecurringIncomes = append(snap.RecurringIncomes, def)
		} else {
			snap.RecurringExpenses = append(snap.RecurringExpenses, def)
		}
	}
	snap.Budget = core.BudgetLimits{}
	for _, d := range budDocs {
		snap.Budget[d.Category] = core.Money{Cents: d.LimitCents}
	}
	for _, d := range goaDocs {
		goal, err := d.toCore()
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("goal %s: %w", d.ID, err)
		}
		snap.Goals = append(snap.Goals, goal)
	}
	for _, d := range catDocs {
		snap.Categories = append(snap.Categories, d.Name)
	}
	return snap.Clone(), nil
}

func (r *Repository) findAll(ctx context.Context, collection string, opts *options.FindOptions, out any) error {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cur, err := r.provider.Collection(collection).Find(ctx, bson.D{}, findOpts...)
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

func (r *Repository) insert(ctx context.Context, collection string, doc any) error {
	if _, err := r.provider.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	return nil
}

// set updates the fields of the document with the given _id, or reports
// core.ErrNotFound when there is none.
func (r *Repository) set(ctx context.Context, collection, id string, fields bson.M) error {
	res, err := r.provider.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update %s %s: %w", collection, id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) remove(ctx context.Context, collection, id string) error {
	res, err := r.provider.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", collection, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete from %s %s: %w", collection, id, core.ErrNotFound)
	}
	return nil
}

func (r *Repository) AddTransaction(ctx context.Context, tx core.Transaction) error {
	return r.insert(ctx, TransactionsCollection, toTransactionDoc(tx, r.now(), r.nextSeq()))
}

func (r *Repository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	return r.set(ctx, TransactionsCollection, tx.ID, bson.M{
		"kind":         string(tx.Kind),
		"date":         tx.Date.String(),
		"description":  tx.Description,
		"amount_cents": tx.Amount.Cents,
		"category":     tx.Category,
	})
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	return r.remove(ctx, TransactionsCollection, id)
}

func (r *Repository) AddRecurring(ctx context.Context, def core.RecurringDefinition) error {
	return r.insert(ctx, RecurringCollection, toRecurringDoc(def, r.now(), r.nextSeq()))
}

func (r *Repository) UpdateRecurring(ctx context.Context, def core.RecurringDefinition) error {
	return r.set(ctx, RecurringCollection, def.ID, bson.M{
		"kind":         string(def.Kind),
		"start_date":   def.StartDate.String(),
		"frequency":    string(def.Frequency),
		"repetitions":  def.Repetitions,
		"description":  def.Description,
		"amount_cents": def.Amount.Cents,
		"category":     def.Category,
	})
}

func (r *Repository) DeleteRecurring(ctx context.Context, id string) error {
	return r.remove(ctx, RecurringCollection, id)
}

func (r *Repository) SetBudget(ctx context.Context, category string, limit core.Money) error {
	key := core.NormalizeCategory(category)
	_, err := r.provider.Collection(BudgetsCollection).UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"limit_cents": limit.Cents}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("set budget %s: %w", key, err)
	}
	return nil
}

func (r *Repository) DeleteBudget(ctx context.Context, category string) error {
	return r.remove(ctx, BudgetsCollection, core.NormalizeCategory(category))
}

func (r *Repository) AddGoal(ctx context.Context, g core.Goal) error {
	return r.insert(ctx, GoalsCollection, toGoalDoc(g, r.now(), r.nextSeq()))
}

func (r *Repository) UpdateGoal(ctx context.Context, g core.Goal) error {
	return r.set(ctx, GoalsCollection, g.ID, bson.M{
		"name":          g.Name,
		"target_cents":  g.Target.Cents,
		"current_cents": g.Current.Cents,
		"due_date":      g.DueDate.String(),
	})
}

func (r *Repository) DeleteGoal(ctx context.Context, id string) error {
	return r.remove(ctx, GoalsCollection, id)
}

func (r *Repository) AddCategory(ctx context.Context, name string) error {
	key := core.NormalizeCategory(name)
	_, err := r.provider.Collection(CategoriesCollection).InsertOne(ctx, categoryDoc{Name: key})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("category %q: %w", key, core.ErrDuplicateCategory)
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, name string) error {
	return r.remove(ctx, CategoriesCollection, core.NormalizeCategory(name))
}

// Clear empties every ledger collection. Categories are kept.
func (r *Repository) Clear(ctx context.Context) error {
	for _, name := range []string{TransactionsCollection, RecurringCollection, BudgetsCollection, GoalsCollection} {
		if _, err := r.provider.Collection(name).DeleteMany(ctx, bson.D{}); err != nil {
			return fmt.Errorf("clear %s: %w", name, err)
		}
	}
	return nil
}
