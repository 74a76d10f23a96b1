// Package connector owns the MongoDB client connections used by every
// collection accessor.
//
// A Manager wraps one driver client for one connection string. It observes
// server heartbeats only to log connection loss and recovery; reconnecting
// is left to the driver. A Pool hands out one connected Manager per
// distinct connection string.
package connector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/xraph/depot"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// WithConfig sets the timeouts and default database.
func WithConfig(c depot.Config) Option { return func(m *Manager) { m.config = c.WithDefaults() } }

// WithClientOptions adds driver client options applied after the URI.
func WithClientOptions(opts ...*options.ClientOptions) Option {
	return func(m *Manager) { m.clientOpts = append(m.clientOpts, opts...) }
}

// Manager owns a single MongoDB client.
type Manager struct {
	uri        string
	config     depot.Config
	logger     *slog.Logger
	clientOpts []*options.ClientOptions

	mu     sync.Mutex
	client *mongo.Client
	lost   atomic.Bool
}

// New creates a Manager for uri. It performs no I/O.
func New(uri string, opts ...Option) *Manager {
	m := &Manager{
		uri:    uri,
		config: depot.DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect creates the client and pings the primary. Calling Connect on a
// connected Manager is a no-op.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		return nil
	}

	opts := options.Client().
		ApplyURI(m.uri).
		SetConnectTimeout(m.config.ConnectTimeout).
		SetServerMonitor(&event.ServerMonitor{
			ServerHeartbeatFailed:    m.heartbeatFailed,
			ServerHeartbeatSucceeded: m.heartbeatSucceeded,
		})
	all := append([]*options.ClientOptions{opts}, m.clientOpts...)

	client, err := mongo.Connect(all...)
	if err != nil {
		return fmt.Errorf("%w: %w", depot.ErrConnection, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.config.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx)) //nolint:errcheck // best effort after failed handshake
		return fmt.Errorf("%w: ping: %w", depot.ErrConnection, err)
	}

	m.client = client
	m.logger.Info("mongo connected", slog.String("database", m.defaultDatabase()))
	return nil
}

// Disconnect closes the client. It is a no-op when no client exists.
// Only call it at process shutdown.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client = nil
	if err != nil {
		return fmt.Errorf("depot/connector: disconnect: %w", err)
	}
	m.logger.Info("mongo disconnected")
	return nil
}

// Client returns the driver client, or nil before Connect.
func (m *Manager) Client() *mongo.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

// Connected reports whether Connect has succeeded and Disconnect has not
// been called since.
func (m *Manager) Connected() bool { return m.Client() != nil }

// Database returns a database handle sharing the client's connections.
// An empty name selects the database named in the connection string, then
// Config.Database. It performs no I/O and returns nil before Connect.
func (m *Manager) Database(name string) *mongo.Database {
	c := m.Client()
	if c == nil {
		return nil
	}
	if name == "" {
		name = m.defaultDatabase()
	}
	return c.Database(name)
}

// Collection returns a collection handle. It performs no I/O.
func (m *Manager) Collection(db *mongo.Database, name string) *mongo.Collection {
	return db.Collection(name)
}

// Ping checks that the primary is reachable.
func (m *Manager) Ping(ctx context.Context) error {
	c := m.Client()
	if c == nil {
		return fmt.Errorf("%w: not connected", depot.ErrConnection)
	}
	if err := c.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %w", depot.ErrConnection, err)
	}
	return nil
}

func (m *Manager) defaultDatabase() string {
	if db := DatabaseFromURI(m.uri); db != "" {
		return db
	}
	return m.config.Database
}

func (m *Manager) heartbeatFailed(e *event.ServerHeartbeatFailedEvent) {
	if m.lost.CompareAndSwap(false, true) {
		attrs := []any{slog.String("connection_id", e.ConnectionID)}
		if e.Failure != nil {
			attrs = append(attrs, slog.String("error", e.Failure.Error()))
		}
		m.logger.Warn("mongo connection lost", attrs...)
	}
}

func (m *Manager) heartbeatSucceeded(e *event.ServerHeartbeatSucceededEvent) {
	if m.lost.CompareAndSwap(true, false) {
		m.logger.Info("mongo reconnected", slog.String("connection_id", e.ConnectionID))
	}
}

// DatabaseFromURI returns the database path segment of a MongoDB
// connection string, or "" when there is none.
func DatabaseFromURI(uri string) string {
	_, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return ""
	}
	_, path, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}
	db, _, _ := strings.Cut(path, "?")
	return db
}
