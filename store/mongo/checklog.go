package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"

	"github.com/xraph/depot/checklog"
	"github.com/xraph/depot/collection"
	"github.com/xraph/depot/id"
	"github.com/xraph/depot/schema"
	"github.com/xraph/depot/transit"
)

var _ checklog.Store = (*Store)(nil)

// checkLogModel is shared by the accessor path and the grove-backed
// CheckLogStore. The grove table must match checkLogs.Name.
type checkLogModel struct {
	grove.BaseModel `grove:"table:auth_check_logs" bson:"-"`
	ID              string    `grove:"id,pk"      bson:"_id"                  validate:"required"`
	Kind            string    `grove:"kind"       bson:"kind"                 validate:"required"`
	UserID          string    `grove:"user_id"    bson:"user_id,omitempty"`
	SessionID       string    `grove:"session_id" bson:"session_id,omitempty"`
	Email           string    `grove:"email"      bson:"email,omitempty"`
	Scope           string    `grove:"scope"      bson:"scope,omitempty"`
	Action          string    `grove:"action"     bson:"action,omitempty"`
	Count           int64     `grove:"count"      bson:"count,omitempty"`
	CreatedAt       time.Time `grove:"created_at" bson:"created_at"`
}

var checkLogs = collection.Definition[checkLogModel]{
	Name:    "auth_check_logs",
	EnvName: transit.EnvAuth,
	Indexes: []mongod.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	},
	Schemas: schema.Pair{Create: schema.Struct()},
}

func checkLogToModel(e *checklog.Entry) *checkLogModel {
	return &checkLogModel{
		ID:        e.ID.String(),
		Kind:      string(e.Kind),
		UserID:    e.UserID,
		SessionID: e.SessionID,
		Email:     e.Email,
		Scope:     e.Scope,
		Action:    e.Action,
		Count:     e.Count,
		CreatedAt: e.CreatedAt,
	}
}

func checkLogFromModel(m *checkLogModel) *checklog.Entry {
	clid, _ := id.ParseCheckLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &checklog.Entry{
		ID:        clid,
		Kind:      checklog.Kind(m.Kind),
		UserID:    m.UserID,
		SessionID: m.SessionID,
		Email:     m.Email,
		Scope:     m.Scope,
		Action:    m.Action,
		Count:     m.Count,
		CreatedAt: m.CreatedAt,
	}
}

func checkLogFilter(filter *checklog.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.Kind != "" {
		f["kind"] = string(filter.Kind)
	}
	if filter.Scope != "" {
		f["scope"] = filter.Scope
	}
	if filter.After != nil || filter.Before != nil {
		dateFilter := bson.M{}
		if filter.After != nil {
			dateFilter["$gte"] = *filter.After
		}
		if filter.Before != nil {
			dateFilter["$lte"] = *filter.Before
		}
		f["created_at"] = dateFilter
	}
	return f
}

// ──────────────────────────────────────────────────
// Check log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateCheckLog(ctx context.Context, e *checklog.Entry) error {
	acc, err := collection.Get(ctx, s.reg, checkLogs)
	if err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now()
	}
	if err := acc.InsertOne(ctx, checkLogToModel(e)); err != nil {
		return fmt.Errorf("depot/mongo: create check log: %w", err)
	}
	return nil
}

func (s *Store) ListCheckLogs(ctx context.Context, filter *checklog.QueryFilter) ([]*checklog.Entry, error) {
	acc, err := collection.Get(ctx, s.reg, checkLogs)
	if err != nil {
		return nil, err
	}
	fo := options.Find()
	if filter != nil {
		if filter.Limit > 0 {
			fo.SetLimit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			fo.SetSkip(int64(filter.Offset))
		}
	}
	models, err := acc.FindMany(ctx, checkLogFilter(filter), collection.Page{},
		bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, fo)
	if err != nil {
		return nil, fmt.Errorf("depot/mongo: list check logs: %w", err)
	}
	result := make([]*checklog.Entry, len(models))
	for i := range models {
		result[i] = checkLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountCheckLogs(ctx context.Context, filter *checklog.QueryFilter) (int64, error) {
	acc, err := collection.Get(ctx, s.reg, checkLogs)
	if err != nil {
		return 0, err
	}
	n, err := acc.Count(ctx, checkLogFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("depot/mongo: count check logs: %w", err)
	}
	return n, nil
}

func (s *Store) PurgeCheckLogs(ctx context.Context, before time.Time) (int64, error) {
	acc, err := collection.Get(ctx, s.reg, checkLogs)
	if err != nil {
		return 0, err
	}
	n, err := acc.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("depot/mongo: purge check logs: %w", err)
	}
	return n, nil
}
