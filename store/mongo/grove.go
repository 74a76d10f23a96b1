package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/depot"
	"github.com/xraph/depot/checklog"
	"github.com/xraph/depot/collection"
)

var _ checklog.Store = (*CheckLogStore)(nil)

// CheckLogStore keeps the check log in a grove-managed MongoDB database,
// usually the host application's own, instead of the auth database.
type CheckLogStore struct {
	db      *grove.DB
	mdb     *mongodriver.MongoDB
	timeout time.Duration
}

// NewCheckLogStore creates a check log store over db. Every call is bounded
// by cfg.OperationTimeout.
func NewCheckLogStore(db *grove.DB, cfg depot.Config) (*CheckLogStore, error) {
	if db == nil {
		return nil, errors.New("depot/mongo: grove database is required")
	}
	return &CheckLogStore{
		db:      db,
		mdb:     mongodriver.Unwrap(db),
		timeout: cfg.WithDefaults().OperationTimeout,
	}, nil
}

// Migrate declares the check log indexes.
func (s *CheckLogStore) Migrate(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if _, err := s.mdb.Collection(checkLogs.Name).Indexes().CreateMany(ctx, checkLogs.Indexes); err != nil {
		return fmt.Errorf("depot/mongo: migrate %s indexes: %w", checkLogs.Name, err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *CheckLogStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *CheckLogStore) CreateCheckLog(ctx context.Context, e *checklog.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	m := checkLogToModel(e)
	if err := checkLogs.Schemas.Create.Validate(m); err != nil {
		return fmt.Errorf("depot/mongo: create check log: %w", err)
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return groveErr("create check log", err)
	}
	return nil
}

func (s *CheckLogStore) ListCheckLogs(ctx context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	var models []checkLogModel
	q := s.mdb.NewFind(&models).
		Filter(checkLogFilter(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, groveErr("list check logs", err)
	}
	result := make([]*checklog.Entry, len(models))
	for i := range models {
		result[i] = checkLogFromModel(&models[i])
	}
	return result, nil
}

func (s *CheckLogStore) CountCheckLogs(ctx context.Context, filter *checklog.QueryFilter) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	n, err := s.mdb.NewFind((*checkLogModel)(nil)).
		Filter(checkLogFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, groveErr("count check logs", err)
	}
	return n, nil
}

func (s *CheckLogStore) PurgeCheckLogs(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	res, err := s.mdb.NewDelete((*checkLogModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, groveErr("purge check logs", err)
	}
	return res.DeletedCount(), nil
}

func (s *CheckLogStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func groveErr(op string, err error) error {
	if kind := collection.Classify(err); kind != nil {
		return fmt.Errorf("depot/mongo: %s: %w: %w", op, kind, err)
	}
	return fmt.Errorf("depot/mongo: %s: %w", op, err)
}
