package connector

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/xraph/depot"
)

// Pool hands out one connected Manager per connection string.
type Pool struct {
	config depot.Config
	logger *slog.Logger
	opts   []Option

	mu       sync.Mutex
	managers map[string]*Manager
	pending  map[string]*dial
}

// dial is an in-flight connect for one connection string. done is closed
// once m and err are set.
type dial struct {
	done chan struct{}
	m    *Manager
	err  error
}

// NewPool creates an empty pool. opts are applied to every Manager.
func NewPool(cfg depot.Config, logger *slog.Logger, opts ...Option) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		config:   cfg.WithDefaults(),
		logger:   logger,
		opts:     opts,
		managers: make(map[string]*Manager),
		pending:  make(map[string]*dial),
	}
}

// Acquire returns the connected Manager for uri, connecting it on first use.
// Concurrent callers for the same uri share one connect; callers for other
// uris are not blocked by it. A failed connect is not cached.
func (p *Pool) Acquire(ctx context.Context, uri string) (*Manager, error) {
	p.mu.Lock()
	if m, ok := p.managers[uri]; ok {
		p.mu.Unlock()
		return m, nil
	}
	if d, ok := p.pending[uri]; ok {
		p.mu.Unlock()
		select {
		case <-d.done:
			return d.m, d.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d := &dial{done: make(chan struct{})}
	p.pending[uri] = d
	p.mu.Unlock()

	opts := append([]Option{WithConfig(p.config), WithLogger(p.logger)}, p.opts...)
	m := New(uri, opts...)
	d.err = m.Connect(ctx)
	if d.err == nil {
		d.m = m
	}

	p.mu.Lock()
	delete(p.pending, uri)
	if d.err == nil {
		p.managers[uri] = m
	}
	p.mu.Unlock()
	close(d.done)
	return d.m, d.err
}

// Len returns the number of connected managers.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.managers)
}

// Ping checks every connected manager.
func (p *Pool) Ping(ctx context.Context) error {
	p.mu.Lock()
	managers := make([]*Manager, 0, len(p.managers))
	for _, m := range p.managers {
		managers = append(managers, m)
	}
	p.mu.Unlock()

	var errs []error
	for _, m := range managers {
		if err := m.Ping(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close disconnects every manager. Connects still in flight are not waited
// for.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	managers := p.managers
	p.managers = make(map[string]*Manager)
	p.mu.Unlock()

	var errs []error
	for _, m := range managers {
		if err := m.Disconnect(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
