// Package cache provides caching implementations for session lookups.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/depot/id"
	"github.com/xraph/depot/session"
)

// Memory is an in-memory session cache keyed by token with TTL-based
// expiration. Entries can also be invalidated by session ID, which is all a
// delete change event carries.
type Memory struct {
	mu        sync.RWMutex
	entries   map[string]*entry // token -> entry
	bySession map[string]string // session ID -> token
	ttl       time.Duration
	maxSize   int
}

type entry struct {
	session   *session.Session
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries:   make(map[string]*entry),
		bySession: make(map[string]string),
		ttl:       time.Minute,
		maxSize:   10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the cached session for token.
func (m *Memory) Get(_ context.Context, token string) (*session.Session, bool) {
	m.mu.RLock()
	e, ok := m.entries[token]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		m.remove(token)
		m.mu.Unlock()
		return nil, false
	}
	cp := *e.session
	return &cp, true
}

// Set stores a session under its token.
func (m *Memory) Set(_ context.Context, s *session.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[s.Token]; !exists && len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}

	cp := *s
	m.entries[s.Token] = &entry{session: &cp, expiresAt: time.Now().Add(m.ttl)}
	m.bySession[s.ID.String()] = s.Token
}

// InvalidateToken removes the session cached under token.
func (m *Memory) InvalidateToken(_ context.Context, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(token)
}

// InvalidateSession removes the session with the given ID.
func (m *Memory) InvalidateSession(_ context.Context, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token, ok := m.bySession[sessionID]; ok {
		m.remove(token)
	}
}

// InvalidateUser removes every cached session of a user.
func (m *Memory) InvalidateUser(_ context.Context, userID id.UserID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for token, e := range m.entries {
		if e.session.UserID == userID {
			m.remove(token)
		}
	}
}

// Len returns the number of cached entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// remove deletes token and its session index. Must hold write lock.
func (m *Memory) remove(token string) {
	if e, ok := m.entries[token]; ok {
		delete(m.bySession, e.session.ID.String())
		delete(m.entries, token)
	}
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			m.remove(k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		m.remove(k)
		return
	}
}
