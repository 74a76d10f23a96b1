// Package mongo is the MongoDB backend of the composite depot store. Users,
// roles and sessions live in the auth database and are reached through
// typed collection accessors, so every call is validated and bounded by the
// configured operation timeout.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/depot"
	"github.com/xraph/depot/collection"
	"github.com/xraph/depot/id"
	"github.com/xraph/depot/role"
	"github.com/xraph/depot/session"
	"github.com/xraph/depot/store"
	"github.com/xraph/depot/user"
)

// Compile-time interface checks.
var (
	_ store.Store     = (*Store)(nil)
	_ session.Watcher = (*Store)(nil)
)

// Store is a MongoDB implementation of the composite depot store.
type Store struct {
	reg *collection.Registry
}

// New creates a store whose collections are opened through reg.
func New(reg *collection.Registry) *Store {
	return &Store{reg: reg}
}

// Registry returns the collection registry backing the store.
func (s *Store) Registry() *collection.Registry { return s.reg }

// Migrate opens the users, roles, sessions and check log collections,
// declaring their indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := collection.Get(ctx, s.reg, users); err != nil {
		return fmt.Errorf("depot/mongo: migrate: %w", err)
	}
	if _, err := collection.Get(ctx, s.reg, roles); err != nil {
		return fmt.Errorf("depot/mongo: migrate: %w", err)
	}
	if _, err := collection.Get(ctx, s.reg, sessions); err != nil {
		return fmt.Errorf("depot/mongo: migrate: %w", err)
	}
	if _, err := collection.Get(ctx, s.reg, checkLogs); err != nil {
		return fmt.Errorf("depot/mongo: migrate: %w", err)
	}
	return nil
}

// Ping verifies the database connections.
func (s *Store) Ping(ctx context.Context) error {
	return s.reg.Ping(ctx)
}

// Close disconnects every connection opened through the registry.
func (s *Store) Close(ctx context.Context) error {
	return s.reg.Close(ctx)
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// ──────────────────────────────────────────────────
// User operations
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	acc, err := collection.Get(ctx, s.reg, users)
	if err != nil {
		return err
	}
	t := now()
	u.CreatedAt = t
	u.UpdatedAt = t
	if err := acc.InsertOne(ctx, userToModel(u)); err != nil {
		return fmt.Errorf("depot/mongo: create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID, includePasswordHash bool) (*user.User, error) {
	return s.findUser(ctx, bson.M{"_id": userID.String()}, includePasswordHash)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string, includePasswordHash bool) (*user.User, error) {
	return s.findUser(ctx, bson.M{"email": email}, includePasswordHash)
}

func (s *Store) findUser(ctx context.Context, filter bson.M, includePasswordHash bool) (*user.User, error) {
	acc, err := collection.Get(ctx, s.reg, users)
	if err != nil {
		return nil, err
	}
	opts := options.FindOne()
	if !includePasswordHash {
		opts.SetProjection(withoutHash)
	}
	m, err := acc.FindOne(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("depot/mongo: get user: %w", err)
	}
	return userFromModel(m), nil
}

func (s *Store) UpdateUser(ctx context.Context, userID id.UserID, u *user.Update) error {
	patch := userPatch(u)
	if len(patch) == 0 {
		return nil
	}
	acc, err := collection.Get(ctx, s.reg, users)
	if err != nil {
		return err
	}
	if err := acc.UpdateOne(ctx, userID.String(), patch); err != nil {
		return fmt.Errorf("depot/mongo: update user: %w", err)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID id.UserID) error {
	acc, err := collection.Get(ctx, s.reg, users)
	if err != nil {
		return err
	}
	n, err := acc.DeleteOne(ctx, bson.M{"_id": userID.String()})
	if err != nil {
		return fmt.Errorf("depot/mongo: delete user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, depot.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, filter *user.ListFilter) ([]*user.User, error) {
	acc, err := collection.Get(ctx, s.reg, users)
	if err != nil {
		return nil, err
	}
	f := bson.M{}
	var page collection.Page
	if filter != nil {
		if filter.OrganizationID != nil {
			f["organization_ids"] = bson.M{"$in": bson.A{filter.OrganizationID.String()}}
		}
		if filter.RoleID != nil {
			f["role_ids"] = bson.M{"$in": bson.A{filter.RoleID.String()}}
		}
		page = collection.Page{Page: filter.Page, PerPage: filter.PerPage}
	}
	models, err := acc.FindMany(ctx, f, page, bson.D{{Key: "created_at", Value: 1}},
		options.Find().SetProjection(withoutHash))
	if err != nil {
		return nil, fmt.Errorf("depot/mongo: list users: %w", err)
	}
	result := make([]*user.User, len(models))
	for i := range models {
		result[i] = userFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	acc, err := collection.Get(ctx, s.reg, roles)
	if err != nil {
		return err
	}
	t := now()
	r.CreatedAt = t
	r.UpdatedAt = t
	if err := acc.InsertOne(ctx, roleToModel(r)); err != nil {
		return fmt.Errorf("depot/mongo: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	acc, err := collection.Get(ctx, s.reg, roles)
	if err != nil {
		return nil, err
	}
	m, err := acc.FindByID(ctx, roleID.String())
	if err != nil {
		return nil, fmt.Errorf("depot/mongo: get role: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) UpdateRole(ctx context.Context, roleID id.RoleID, u *role.Update) error {
	patch := rolePatch(u)
	if len(patch) == 0 {
		return nil
	}
	acc, err := collection.Get(ctx, s.reg, roles)
	if err != nil {
		return err
	}
	if err := acc.UpdateOne(ctx, roleID.String(), patch); err != nil {
		return fmt.Errorf("depot/mongo: update role: %w", err)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	acc, err := collection.Get(ctx, s.reg, roles)
	if err != nil {
		return err
	}
	n, err := acc.DeleteOne(ctx, bson.M{"_id": roleID.String()})
	if err != nil {
		return fmt.Errorf("depot/mongo: delete role: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("role %s: %w", roleID, depot.ErrNotFound)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	acc, err := collection.Get(ctx, s.reg, roles)
	if err != nil {
		return nil, err
	}
	f := bson.M{}
	var page collection.Page
	if filter != nil {
		if filter.Search != "" {
			f["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
		}
		page = collection.Page{Page: filter.Page, PerPage: filter.PerPage}
	}
	models, err := acc.FindMany(ctx, f, page, bson.D{{Key: "created_at", Value: 1}})
	if err != nil {
		return nil, fmt.Errorf("depot/mongo: list roles: %w", err)
	}
	return rolesFromModels(models), nil
}

func (s *Store) ListRolesByIDs(ctx context.Context, roleIDs []id.RoleID) ([]*role.Role, error) {
	ids := id.Strings(roleIDs)
	if len(ids) == 0 {
		return []*role.Role{}, nil
	}
	acc, err := collection.Get(ctx, s.reg, roles)
	if err != nil {
		return nil, err
	}
	models, err := acc.FindMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, collection.Page{}, nil)
	if err != nil {
		return nil, fmt.Errorf("depot/mongo: list roles by ids: %w", err)
	}
	return orderRoles(ids, rolesFromModels(models)), nil
}

// orderRoles arranges fetched roles in the order of ids, once each. $in
// returns documents in natural order, which would make merge precedence
// depend on insertion history.
func orderRoles(ids []string, fetched []*role.Role) []*role.Role {
	byID := make(map[string]*role.Role, len(fetched))
	for _, r := range fetched {
		byID[r.ID.String()] = r
	}
	result := make([]*role.Role, 0, len(fetched))
	for _, rid := range ids {
		if r, ok := byID[rid]; ok {
			result = append(result, r)
			delete(byID, rid)
		}
	}
	return result
}

func rolesFromModels(models []roleModel) []*role.Role {
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result
}

// ──────────────────────────────────────────────────
// Session operations
// ──────────────────────────────────────────────────

func (s *Store) CreateSession(ctx context.Context, sess *session.Session) error {
	acc, err := collection.Get(ctx, s.reg, sessions)
	if err != nil {
		return err
	}
	t := now()
	sess.CreatedAt = t
	sess.UpdatedAt = t
	if err := acc.InsertOne(ctx, sessionToModel(sess)); err != nil {
		return fmt.Errorf("depot/mongo: create session: %w", err)
	}
	return nil
}

func (s *Store) GetSessionByToken(ctx context.Context, token string) (*session.Session, error) {
	acc, err := collection.Get(ctx, s.reg, sessions)
	if err != nil {
		return nil, err
	}
	m, err := acc.FindOne(ctx, bson.M{"token": token})
	if err != nil {
		return nil, fmt.Errorf("depot/mongo: get session: %w", err)
	}
	return sessionFromModel(m), nil
}

func (s *Store) DeleteSessionByToken(ctx context.Context, token string) error {
	acc, err := collection.Get(ctx, s.reg, sessions)
	if err != nil {
		return err
	}
	if _, err := acc.DeleteOne(ctx, bson.M{"token": token}); err != nil {
		return fmt.Errorf("depot/mongo: delete session: %w", err)
	}
	return nil
}

func (s *Store) ListSessionsByUser(ctx context.Context, userID id.UserID) ([]*session.Session, error) {
	acc, err := collection.Get(ctx, s.reg, sessions)
	if err != nil {
		return nil, err
	}
	models, err := acc.FindMany(ctx, bson.M{"user_id": userID.String()}, collection.Page{},
		bson.D{{Key: "created_at", Value: 1}})
	if err != nil {
		return nil, fmt.Errorf("depot/mongo: list sessions: %w", err)
	}
	result := make([]*session.Session, len(models))
	for i := range models {
		result[i] = sessionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteSessionsByUser(ctx context.Context, userID id.UserID) (int64, error) {
	acc, err := collection.Get(ctx, s.reg, sessions)
	if err != nil {
		return 0, err
	}
	n, err := acc.DeleteMany(ctx, bson.M{"user_id": userID.String()})
	if err != nil {
		return 0, fmt.Errorf("depot/mongo: delete sessions: %w", err)
	}
	return n, nil
}

// sessionDeleteEvent is the part of a change event the watcher reads.
type sessionDeleteEvent struct {
	DocumentKey struct {
		ID string `bson:"_id"`
	} `bson:"documentKey"`
}

// WatchSessionDeletes follows the sessions change stream and reports the
// ID of every deleted session. It returns nil when ctx is done.
func (s *Store) WatchSessionDeletes(ctx context.Context, fn func(sessionID string)) error {
	acc, err := collection.Get(ctx, s.reg, sessions)
	if err != nil {
		return err
	}
	pipeline := mongod.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "delete"}}}},
	}
	cs, err := acc.Watch(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("depot/mongo: watch sessions: %w", err)
	}
	defer cs.Close(context.WithoutCancel(ctx)) //nolint:errcheck // best-effort cleanup

	for cs.Next(ctx) {
		var ev sessionDeleteEvent
		if err := cs.Decode(&ev); err != nil {
			return fmt.Errorf("depot/mongo: decode session event: %w", err)
		}
		fn(ev.DocumentKey.ID)
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := cs.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("depot/mongo: watch sessions: %w", err)
	}
	return nil
}
