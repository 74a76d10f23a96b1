package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/depot"
	"github.com/xraph/depot/schema"
)

// Definition describes one collection: where it lives, what indexes it
// needs and how its documents are validated.
type Definition[T any] struct {
	// Name is the collection name.
	Name string
	// EnvName is the logical name the connection string is resolved from.
	EnvName string
	// Database overrides the database chosen by the connection string.
	Database string
	// Indexes are declared once when the accessor is created.
	Indexes []mongo.IndexModel
	// Schemas validate inserts and partial updates.
	Schemas schema.Pair
}

// Accessor is a typed handle on one collection. It holds a non-owning
// collection handle; the connection belongs to the connector.
type Accessor[T any] struct {
	def     Definition[T]
	coll    *mongo.Collection
	schemas *schema.Registry
	timeout time.Duration
	logger  *slog.Logger
}

func newAccessor[T any](def Definition[T], coll *mongo.Collection, schemas *schema.Registry, cfg depot.Config, logger *slog.Logger) *Accessor[T] {
	return &Accessor[T]{
		def:     def,
		coll:    coll,
		schemas: schemas,
		timeout: cfg.OperationTimeout,
		logger:  logger,
	}
}

// Name returns the collection name.
func (a *Accessor[T]) Name() string { return a.def.Name }

// Collection returns the raw driver handle.
func (a *Accessor[T]) Collection() *mongo.Collection { return a.coll }

// Indexes returns the declared index list.
func (a *Accessor[T]) Indexes() []mongo.IndexModel { return a.def.Indexes }

// EnsureIndexes creates the declared indexes. Creating an index that
// already exists with the same definition is a no-op on the server.
func (a *Accessor[T]) EnsureIndexes(ctx context.Context) error {
	if len(a.def.Indexes) == 0 {
		return nil
	}
	ctx, cancel := a.bound(ctx)
	defer cancel()
	if _, err := a.coll.Indexes().CreateMany(ctx, a.def.Indexes); err != nil {
		return a.wrap("create indexes", err)
	}
	return nil
}

// FindOne returns the first document matching filter.
func (a *Accessor[T]) FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) (*T, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	var doc T
	if err := a.coll.FindOne(ctx, orEmpty(filter), opts...).Decode(&doc); err != nil {
		return nil, a.wrap("find one", err)
	}
	return &doc, nil
}

// FindByID returns the document whose _id is id.
func (a *Accessor[T]) FindByID(ctx context.Context, id string, opts ...options.Lister[options.FindOneOptions]) (*T, error) {
	return a.FindOne(ctx, bson.M{"_id": id}, opts...)
}

// FindMany returns the documents matching filter, sorted by sort when it is
// non-nil and paged by page when both of its fields are positive.
func (a *Accessor[T]) FindMany(ctx context.Context, filter any, page Page, sort any, opts ...options.Lister[options.FindOptions]) ([]T, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	fo := options.Find()
	if skip, limit, ok := page.Bounds(); ok {
		fo.SetSkip(skip).SetLimit(limit)
	}
	if sort != nil {
		fo.SetSort(sort)
	}

	cur, err := a.coll.Find(ctx, orEmpty(filter), append([]options.Lister[options.FindOptions]{fo}, opts...)...)
	if err != nil {
		return nil, a.wrap("find", err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, a.wrap("decode", err)
	}
	return out, nil
}

// Count returns the number of documents matching filter.
func (a *Accessor[T]) Count(ctx context.Context, filter any) (int64, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	n, err := a.coll.CountDocuments(ctx, orEmpty(filter))
	if err != nil {
		return 0, a.wrap("count", err)
	}
	return n, nil
}

// InsertOne validates doc against the create schema and inserts it.
func (a *Accessor[T]) InsertOne(ctx context.Context, doc *T) error {
	if err := a.schemas.ValidateCreate(a.def.Name, doc); err != nil {
		return fmt.Errorf("depot/collection: %s: %w", a.def.Name, err)
	}

	ctx, cancel := a.bound(ctx)
	defer cancel()

	res, err := a.coll.InsertOne(ctx, doc)
	if err != nil {
		return a.wrap("insert", err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("depot/collection: %s insert: %w", a.def.Name, depot.ErrUnacknowledged)
	}
	return nil
}

// UpdateOne validates patch against the update schema and applies it with
// $set, stamping updated_at.
func (a *Accessor[T]) UpdateOne(ctx context.Context, id string, patch bson.M) error {
	if err := a.schemas.ValidateUpdate(a.def.Name, patch); err != nil {
		return fmt.Errorf("depot/collection: %s: %w", a.def.Name, err)
	}

	set := make(bson.M, len(patch)+1)
	maps.Copy(set, patch)
	set["updated_at"] = time.Now().UTC()

	ctx, cancel := a.bound(ctx)
	defer cancel()

	res, err := a.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return a.wrap("update", err)
	}
	if !res.Acknowledged {
		return fmt.Errorf("depot/collection: %s update: %w", a.def.Name, depot.ErrUnacknowledged)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("depot/collection: %s update %s: %w", a.def.Name, id, depot.ErrNotFound)
	}
	return nil
}

// DeleteOne deletes the first document matching filter and reports how
// many were removed (0 or 1).
func (a *Accessor[T]) DeleteOne(ctx context.Context, filter any) (int64, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	res, err := a.coll.DeleteOne(ctx, orEmpty(filter))
	if err != nil {
		return 0, a.wrap("delete", err)
	}
	return res.DeletedCount, nil
}

// DeleteMany deletes every document matching filter.
func (a *Accessor[T]) DeleteMany(ctx context.Context, filter any) (int64, error) {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	res, err := a.coll.DeleteMany(ctx, orEmpty(filter))
	if err != nil {
		return 0, a.wrap("delete many", err)
	}
	return res.DeletedCount, nil
}

// Aggregate runs pipeline and decodes every result into out, which must be
// a pointer to a slice.
func (a *Accessor[T]) Aggregate(ctx context.Context, pipeline any, out any) error {
	ctx, cancel := a.bound(ctx)
	defer cancel()

	cur, err := a.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return a.wrap("aggregate", err)
	}
	if err := cur.All(ctx, out); err != nil {
		return a.wrap("decode", err)
	}
	return nil
}

// Watch opens a change stream on the collection. The stream lives until
// ctx is cancelled or the caller closes it, so it is not bounded by the
// operation timeout. Change streams require a replica set.
func (a *Accessor[T]) Watch(ctx context.Context, pipeline any, opts ...options.Lister[options.ChangeStreamOptions]) (*mongo.ChangeStream, error) {
	if pipeline == nil {
		pipeline = mongo.Pipeline{}
	}
	cs, err := a.coll.Watch(ctx, pipeline, opts...)
	if err != nil {
		return nil, a.wrap("watch", err)
	}
	return cs, nil
}

func (a *Accessor[T]) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}

// wrap translates driver errors into the depot taxonomy.
// Classify returns the depot sentinel matching a driver error, or nil when
// none applies.
func Classify(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return depot.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return depot.ErrDuplicate
	case mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return depot.ErrTimeout
	case mongo.IsNetworkError(err):
		return depot.ErrConnection
	default:
		return nil
	}
}

func (a *Accessor[T]) wrap(op string, err error) error {
	kind := Classify(err)
	if kind == nil {
		return fmt.Errorf("depot/collection: %s %s: %w", a.def.Name, op, err)
	}
	if kind == depot.ErrTimeout {
		a.logger.Warn("collection operation timed out",
			slog.String("collection", a.def.Name),
			slog.String("op", op),
		)
	}
	return fmt.Errorf("depot/collection: %s %s: %w: %w", a.def.Name, op, kind, err)
}

func orEmpty(filter any) any {
	if filter == nil {
		return bson.D{}
	}
	return filter
}
