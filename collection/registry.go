// Package collection provides typed, validated accessors over MongoDB
// collections and the registry that keeps exactly one accessor per
// collection for the life of the process.
//
// Each document type is described once by a Definition: collection name,
// the environment name its connection string is resolved from, the indexes
// it needs and its schema pair. Get returns the accessor for a definition,
// connecting and declaring indexes on first use.
package collection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xraph/depot"
	"github.com/xraph/depot/connector"
	"github.com/xraph/depot/schema"
)

// URIResolver resolves a logical connection name (for example
// "TML_INTERFACE_AUTH") to a MongoDB connection string.
type URIResolver interface {
	Resolve(name string) (string, error)
}

// ResolverFunc adapts a function to URIResolver.
type ResolverFunc func(name string) (string, error)

// Resolve implements URIResolver.
func (f ResolverFunc) Resolve(name string) (string, error) { return f(name) }

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(r *Registry) { r.logger = l } }

// WithConfig sets timeouts and the default database.
func WithConfig(c depot.Config) Option { return func(r *Registry) { r.config = c.WithDefaults() } }

// WithSchemas sets the schema registry shared by every accessor.
func WithSchemas(s *schema.Registry) Option { return func(r *Registry) { r.schemas = s } }

// WithPool sets the connection pool. By default the registry creates its own.
func WithPool(p *connector.Pool) Option { return func(r *Registry) { r.pool = p } }

// Registry is the process-scoped table of collection accessors. Accessors
// are created lazily and at most once per collection name, even under
// concurrent first access.
type Registry struct {
	resolver URIResolver
	pool     *connector.Pool
	schemas  *schema.Registry
	config   depot.Config
	logger   *slog.Logger

	mu    sync.Mutex
	slots map[string]*slot
}

// slot holds one accessor. done is closed once the initialiser returns.
type slot struct {
	done  chan struct{}
	value any
	err   error
}

// NewRegistry creates a registry that resolves connection strings through
// resolver.
func NewRegistry(resolver URIResolver, opts ...Option) *Registry {
	r := &Registry{
		resolver: resolver,
		config:   depot.DefaultConfig(),
		logger:   slog.Default(),
		slots:    make(map[string]*slot),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.schemas == nil {
		r.schemas = schema.NewRegistry()
	}
	if r.pool == nil {
		r.pool = connector.NewPool(r.config, r.logger)
	}
	return r
}

// Schemas returns the schema registry shared by the accessors.
func (r *Registry) Schemas() *schema.Registry { return r.schemas }

// Config returns the registry configuration.
func (r *Registry) Config() depot.Config { return r.config }

// Acquire returns the value cached under key, running init to create it
// when absent. Concurrent callers for the same key wait for the single
// in-flight init (or for their own ctx). A failed init is not cached, so a
// later call runs init again.
func (r *Registry) Acquire(ctx context.Context, key string, init func(context.Context) (any, error)) (any, error) {
	r.mu.Lock()
	if s, ok := r.slots[key]; ok {
		r.mu.Unlock()
		select {
		case <-s.done:
			return s.value, s.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s := &slot{done: make(chan struct{})}
	r.slots[key] = s
	r.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			s.value, s.err = nil, fmt.Errorf("%w: init %s panicked: %v", depot.ErrInternal, key, rec)
		}
		if s.err != nil {
			r.mu.Lock()
			delete(r.slots, key)
			r.mu.Unlock()
		}
		close(s.done)
	}()
	s.value, s.err = init(ctx)
	return s.value, s.err
}

// Names returns the names of the collections initialised so far.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.slots))
	for n := range r.slots {
		names = append(names, n)
	}
	return names
}

// Ping checks every connection opened by the registry.
func (r *Registry) Ping(ctx context.Context) error { return r.pool.Ping(ctx) }

// Close disconnects every connection and forgets all accessors. Call it at
// process shutdown only.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	r.slots = make(map[string]*slot)
	r.mu.Unlock()
	return r.pool.Close(ctx)
}

// Get returns the accessor for def, creating it on first use: the
// connection string is resolved from def.EnvName, the shared connection is
// opened, the schema pair is registered and the indexes are declared.
func Get[T any](ctx context.Context, r *Registry, def Definition[T]) (*Accessor[T], error) {
	v, err := r.Acquire(ctx, def.Name, func(ctx context.Context) (any, error) {
		return open(ctx, r, def)
	})
	if err != nil {
		return nil, fmt.Errorf("depot/collection: %s: %w", def.Name, err)
	}
	acc, ok := v.(*Accessor[T])
	if !ok {
		return nil, fmt.Errorf("depot/collection: %s already holds %T", def.Name, v)
	}
	return acc, nil
}

func open[T any](ctx context.Context, r *Registry, def Definition[T]) (*Accessor[T], error) {
	uri, err := r.resolver.Resolve(def.EnvName)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", def.EnvName, err)
	}
	if uri == "" {
		return nil, fmt.Errorf("%w: no connection string for %s", depot.ErrConnection, def.EnvName)
	}
	m, err := r.pool.Acquire(ctx, uri)
	if err != nil {
		return nil, err
	}

	if def.Schemas.Create != nil || def.Schemas.Update != nil {
		r.schemas.Register(def.Name, def.Schemas)
	}

	acc := newAccessor(def, m.Collection(m.Database(def.Database), def.Name), r.schemas, r.config, r.logger)
	if err := acc.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	r.logger.Debug("collection ready",
		slog.String("collection", def.Name),
		slog.Int("indexes", len(def.Indexes)),
	)
	return acc, nil
}
