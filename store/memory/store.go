// Package memory provides an in-memory implementation of the depot
// composite store. It is intended for testing and development.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/xraph/depot"
	"github.com/xraph/depot/checklog"
	"github.com/xraph/depot/collection"
	"github.com/xraph/depot/id"
	"github.com/xraph/depot/permission"
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

// Store is a thread-safe in-memory store for users, roles and sessions.
type Store struct {
	mu sync.RWMutex

	users    map[string]*user.User
	roles    map[string]*role.Role
	sessions map[string]*session.Session // token -> session
	logs     []*checklog.Entry

	watchMu  sync.Mutex
	watchers map[int]func(string)
	nextW    int
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[string]*user.User),
		roles:    make(map[string]*role.Role),
		sessions: make(map[string]*session.Session),
		watchers: make(map[int]func(string)),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close(_ context.Context) error { return nil }

func now() time.Time { return time.Now().UTC() }

// ──────────────────────────────────────────────────
// User Store
// ──────────────────────────────────────────────────

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID.String()]; ok {
		return fmt.Errorf("user %s: %w", u.ID, depot.ErrDuplicate)
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return fmt.Errorf("user email %q: %w", u.Email, depot.ErrDuplicate)
		}
	}
	t := now()
	u.CreatedAt = t
	u.UpdatedAt = t
	s.users[u.ID.String()] = copyUser(u, true)
	return nil
}

func (s *Store) GetUser(_ context.Context, userID id.UserID, includePasswordHash bool) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID.String()]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, depot.ErrNotFound)
	}
	return copyUser(u, includePasswordHash), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string, includePasswordHash bool) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u, includePasswordHash), nil
		}
	}
	return nil, fmt.Errorf("user email %q: %w", email, depot.ErrNotFound)
}

func (s *Store) UpdateUser(_ context.Context, userID id.UserID, upd *user.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID.String()]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, depot.ErrNotFound)
	}
	if upd.Email != nil {
		for _, other := range s.users {
			if other.ID != u.ID && other.Email == *upd.Email {
				return fmt.Errorf("user email %q: %w", *upd.Email, depot.ErrDuplicate)
			}
		}
		u.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Profile != nil {
		u.Profile = *upd.Profile
	}
	if upd.RoleIDs != nil {
		u.RoleIDs = slices.Clone(*upd.RoleIDs)
	}
	if upd.OrganizationIDs != nil {
		u.OrganizationIDs = slices.Clone(*upd.OrganizationIDs)
	}
	if upd.Permissions != nil {
		u.Permissions = copyGrants(*upd.Permissions)
	}
	u.UpdatedAt = now()
	return nil
}

func (s *Store) DeleteUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID.String()]; !ok {
		return fmt.Errorf("user %s: %w", userID, depot.ErrNotFound)
	}
	delete(s.users, userID.String())
	return nil
}

func (s *Store) ListUsers(_ context.Context, filter *user.ListFilter) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*user.User
	for _, u := range s.users {
		if filter != nil {
			if filter.OrganizationID != nil && !slices.Contains(u.OrganizationIDs, *filter.OrganizationID) {
				continue
			}
			if filter.RoleID != nil && !slices.Contains(u.RoleIDs, *filter.RoleID) {
				continue
			}
		}
		result = append(result, copyUser(u, false))
	}
	slices.SortFunc(result, func(a, b *user.User) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})
	if filter != nil {
		result = collection.Paginate(result, collection.Page{Page: filter.Page, PerPage: filter.PerPage})
	}
	if result == nil {
		result = []*user.User{}
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; ok {
		return fmt.Errorf("role %s: %w", r.ID, depot.ErrDuplicate)
	}
	for _, existing := range s.roles {
		if existing.Name == r.Name {
			return fmt.Errorf("role name %q: %w", r.Name, depot.ErrDuplicate)
		}
	}
	t := now()
	r.CreatedAt = t
	r.UpdatedAt = t
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, depot.ErrNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) UpdateRole(_ context.Context, roleID id.RoleID, upd *role.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return fmt.Errorf("role %s: %w", roleID, depot.ErrNotFound)
	}
	if upd.Name != nil {
		r.Name = *upd.Name
	}
	if upd.Description != nil {
		r.Description = *upd.Description
	}
	if upd.Permissions != nil {
		r.Permissions = copyGrants(*upd.Permissions)
	}
	r.UpdatedAt = now()
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID.String()]; !ok {
		return fmt.Errorf("role %s: %w", roleID, depot.ErrNotFound)
	}
	delete(s.roles, roleID.String())
	return nil
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*role.Role
	for _, r := range s.roles {
		if filter != nil && filter.Search != "" &&
			!strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, copyRole(r))
	}
	slices.SortFunc(result, func(a, b *role.Role) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})
	if filter != nil {
		result = collection.Paginate(result, collection.Page{Page: filter.Page, PerPage: filter.PerPage})
	}
	if result == nil {
		result = []*role.Role{}
	}
	return result, nil
}

// ListRolesByIDs returns the roles in the order their IDs are given.
func (s *Store) ListRolesByIDs(_ context.Context, roleIDs []id.RoleID) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*role.Role, 0, len(roleIDs))
	seen := make(map[string]bool, len(roleIDs))
	for _, rid := range roleIDs {
		key := rid.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		if r, ok := s.roles[key]; ok {
			result = append(result, copyRole(r))
		}
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Session Store
// ──────────────────────────────────────────────────

func (s *Store) CreateSession(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.Token]; ok {
		return fmt.Errorf("session token: %w", depot.ErrDuplicate)
	}
	t := now()
	sess.CreatedAt = t
	sess.UpdatedAt = t
	cp := *sess
	s.sessions[sess.Token] = &cp
	return nil
}

func (s *Store) GetSessionByToken(_ context.Context, token string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return nil, fmt.Errorf("session: %w", depot.ErrNotFound)
	}
	cp := *sess
	return &cp, nil
}

func (s *Store) DeleteSessionByToken(_ context.Context, token string) error {
	s.mu.Lock()
	sess, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()
	if ok {
		s.notify(sess.ID.String())
	}
	return nil
}

func (s *Store) ListSessionsByUser(_ context.Context, userID id.UserID) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := []*session.Session{}
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			cp := *sess
			result = append(result, &cp)
		}
	}
	slices.SortFunc(result, func(a, b *session.Session) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
	})
	return result, nil
}

func (s *Store) DeleteSessionsByUser(_ context.Context, userID id.UserID) (int64, error) {
	s.mu.Lock()
	var deleted []string
	for token, sess := range s.sessions {
		if sess.UserID == userID {
			deleted = append(deleted, sess.ID.String())
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()
	for _, sid := range deleted {
		s.notify(sid)
	}
	return int64(len(deleted)), nil
}

// WatchSessionDeletes calls fn for every session deleted while it runs and
// returns nil once ctx is done.
func (s *Store) WatchSessionDeletes(ctx context.Context, fn func(sessionID string)) error {
	s.watchMu.Lock()
	key := s.nextW
	s.nextW++
	s.watchers[key] = fn
	s.watchMu.Unlock()

	<-ctx.Done()

	s.watchMu.Lock()
	delete(s.watchers, key)
	s.watchMu.Unlock()
	return nil
}

func (s *Store) notify(sessionID string) {
	s.watchMu.Lock()
	fns := make([]func(string), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()
	for _, fn := range fns {
		fn(sessionID)
	}
}

// ──────────────────────────────────────────────────
// Copy helpers
// ──────────────────────────────────────────────────

func copyUser(u *user.User, includePasswordHash bool) *user.User {
	cp := *u
	if !includePasswordHash {
		cp.PasswordHash = ""
	}
	cp.RoleIDs = slices.Clone(u.RoleIDs)
	cp.OrganizationIDs = slices.Clone(u.OrganizationIDs)
	cp.Permissions = copyGrants(u.Permissions)
	return &cp
}

func copyRole(r *role.Role) *role.Role {
	cp := *r
	cp.Permissions = copyGrants(r.Permissions)
	return &cp
}

func copyGrants(g []permission.Grant) []permission.Grant {
	if g == nil {
		return nil
	}
	out := make([]permission.Grant, len(g))
	for i := range g {
		out[i] = g[i].Clone()
	}
	return out
}
