//go:build integration

package mongo_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"go.mongodb.org/mongo-driver/v2/bson"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/xraph/depot"
	"github.com/xraph/depot/collection"
	"github.com/xraph/depot/id"
	"github.com/xraph/depot/permission"
	"github.com/xraph/depot/role"
	"github.com/xraph/depot/session"
	mongostore "github.com/xraph/depot/store/mongo"
	"github.com/xraph/depot/transit"
	"github.com/xraph/depot/user"
)

func startMongo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	// Change streams need a replica set.
	c, err := tcmongo.Run(ctx, "mongo:7", tcmongo.WithReplicaSet("rs0"))
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err)

	uri, err := c.ConnectionString(ctx)
	require.NoError(t, err)
	if !strings.Contains(uri, "directConnection") {
		sep := "?"
		if strings.Contains(uri, "?") {
			sep = "&"
		}
		uri += sep + "directConnection=true"
	}
	return uri
}

func newStore(t *testing.T) (*mongostore.Store, *collection.Registry) {
	t.Helper()
	uri := startMongo(t)
	reg := collection.NewRegistry(collection.ResolverFunc(func(string) (string, error) { return uri, nil }),
		collection.WithConfig(depot.Config{Database: "depot_test", OperationTimeout: 5 * time.Second}),
	)
	s := mongostore.New(reg)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	require.NoError(t, s.Migrate(context.Background()))
	return s, reg
}

func TestMongoUsers(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	u := &user.User{
		ID:           id.NewUserID(),
		Email:        "ana@example.com",
		PasswordHash: "$2a$10$hash",
		Permissions:  []permission.Grant{{Scope: "rides", Action: "read", Fields: map[string]any{"agency_ids": []any{"41"}}}},
	}
	require.NoError(t, s.CreateUser(ctx, u))

	dup := &user.User{ID: id.NewUserID(), Email: u.Email}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), depot.ErrDuplicate)

	got, err := s.GetUserByEmail(ctx, u.Email, false)
	require.NoError(t, err)
	assert.Empty(t, got.PasswordHash)
	assert.Equal(t, []any{"41"}, got.Permissions[0].Fields["agency_ids"])

	withHash, err := s.GetUser(ctx, u.ID, true)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, withHash.PasswordHash)

	email := "ana.silva@example.com"
	require.NoError(t, s.UpdateUser(ctx, u.ID, &user.Update{Email: &email}))
	got, err = s.GetUser(ctx, u.ID, false)
	require.NoError(t, err)
	assert.Equal(t, email, got.Email)

	require.NoError(t, s.DeleteUser(ctx, u.ID))
	_, err = s.GetUser(ctx, u.ID, false)
	assert.ErrorIs(t, err, depot.ErrNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), depot.ErrNotFound)
}

func TestMongoRoles(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	a := &role.Role{ID: id.NewRoleID(), Name: "Dispatcher", Permissions: []permission.Grant{}}
	b := &role.Role{ID: id.NewRoleID(), Name: "Planner", Permissions: []permission.Grant{}}
	require.NoError(t, s.CreateRole(ctx, a))
	require.NoError(t, s.CreateRole(ctx, b))
	assert.ErrorIs(t, s.CreateRole(ctx, &role.Role{ID: id.NewRoleID(), Name: "Planner"}), depot.ErrDuplicate)

	found, err := s.ListRoles(ctx, &role.ListFilter{Search: "disp"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	byIDs, err := s.ListRolesByIDs(ctx, []id.RoleID{b.ID, id.NewRoleID(), a.ID})
	require.NoError(t, err)
	require.Len(t, byIDs, 2)
	assert.Equal(t, b.ID, byIDs[0].ID)
	assert.Equal(t, a.ID, byIDs[1].ID)

	none, err := s.ListRolesByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMongoSessionsAndWatch(t *testing.T) {
	s, _ := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uid := id.NewUserID()
	sess := &session.Session{ID: id.NewSessionID(), Token: "tok-1", UserID: uid}
	require.NoError(t, s.CreateSession(ctx, sess))

	got, err := s.GetSessionByToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)

	var (
		mu      sync.Mutex
		deleted []string
	)
	done := make(chan error, 1)
	go func() {
		done <- s.WatchSessionDeletes(ctx, func(sid string) {
			mu.Lock()
			deleted = append(deleted, sid)
			mu.Unlock()
		})
	}()

	// The stream opens asynchronously; delete fresh sessions until one is seen.
	require.Eventually(t, func() bool {
		extra := &session.Session{ID: id.NewSessionID(), Token: id.NewSessionID().String(), UserID: uid}
		if err := s.CreateSession(ctx, extra); err != nil {
			return false
		}
		if err := s.DeleteSessionByToken(ctx, extra.Token); err != nil {
			return false
		}
		time.Sleep(200 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		return len(deleted) > 0
	}, 20*time.Second, 100*time.Millisecond)

	n, err := s.DeleteSessionsByUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, s.DeleteSessionByToken(ctx, "tok-1"))

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("watch returned %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestMongoTransitAccessor(t *testing.T) {
	_, reg := newStore(t)
	ctx := context.Background()
	require.NoError(t, transit.Migrate(ctx, reg))

	stops, err := collection.Get(ctx, reg, transit.Stops)
	require.NoError(t, err)

	specs, err := stops.Collection().Indexes().ListSpecifications(ctx)
	require.NoError(t, err)
	assert.Len(t, specs, len(transit.Stops.Indexes)+1) // plus _id

	stop := &transit.Stop{
		Document: transit.Document{ID: "060001"},
		Code:     "060001",
		Name:     "Cais do Sodré",
		Lat:      38.706,
		Lon:      -9.144,
	}
	require.NoError(t, stops.InsertOne(ctx, stop))
	assert.ErrorIs(t, stops.InsertOne(ctx, stop), depot.ErrDuplicate)

	require.NoError(t, stops.UpdateOne(ctx, "060001", bson.M{"name": "Cais do Sodré (Terminal)"}))
	assert.ErrorIs(t, stops.UpdateOne(ctx, "060001", bson.M{"agency_id": "41"}), depot.ErrValidation)
	assert.ErrorIs(t, stops.UpdateOne(ctx, "missing", bson.M{"name": "x"}), depot.ErrNotFound)

	got, err := stops.FindByID(ctx, "060001")
	require.NoError(t, err)
	assert.Equal(t, "Cais do Sodré (Terminal)", got.Name)
	assert.False(t, got.UpdatedAt.IsZero())

	page, err := stops.FindMany(ctx, nil, collection.Page{Page: 2, PerPage: 10}, bson.D{{Key: "_id", Value: 1}})
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)

	n, err := stops.DeleteOne(ctx, bson.M{"_id": "060001"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
