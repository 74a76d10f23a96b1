// Package extension provides a Forge extension entry point for depot.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/depot"
	"github.com/xraph/depot/api"
	"github.com/xraph/depot/auth"
	"github.com/xraph/depot/checklog"
	"github.com/xraph/depot/plugin"
	"github.com/xraph/depot/store"
	"github.com/xraph/depot/store/mongo"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "depot"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Transit data access and session authentication over MongoDB"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the depot auth provider as a Forge extension.
type Extension struct {
	config     Config
	provider   *auth.Provider
	apiHandler *api.API
	logger     *slog.Logger
	authOpts   []auth.Option
	plugins    []plugin.Plugin

	useGrove bool
	groveDB  *grove.DB
	// groveLog is set when the check log lives in a grove database.
	groveLog *mongo.CheckLogStore

	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// New creates a depot Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Provider returns the underlying auth provider.
func (e *Extension) Provider() *auth.Provider { return e.provider }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It builds the provider, registers
// it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*auth.Provider, error) {
		return e.provider, nil
	}); err != nil {
		return fmt.Errorf("depot: register provider in container: %w", err)
	}

	return nil
}

// checkLogStore picks where check log entries are written: the grove
// database when WithGroveDatabase was given, otherwise the provider's store.
func (e *Extension) checkLogStore(st store.Store, cfg depot.Config, resolve func() (*grove.DB, error)) (checklog.Store, error) {
	if !e.useGrove {
		cls, ok := st.(checklog.Store)
		if !ok {
			return nil, depot.ErrNotSupported
		}
		return cls, nil
	}
	db := e.groveDB
	if db == nil {
		var err error
		if db, err = resolve(); err != nil {
			return nil, fmt.Errorf("resolve grove database: %w", err)
		}
	}
	gl, err := mongo.NewCheckLogStore(db, cfg)
	if err != nil {
		return nil, err
	}
	e.groveLog = gl
	return gl, nil
}

func (e *Extension) init(fapp forge.App) error {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg := depot.DefaultConfig()
	cfg.SessionCacheTTL = e.config.SessionCacheTTL
	if e.config.DisableWatch && cfg.SessionCacheTTL > 0 {
		logger.Warn("session cache disabled: session watch is off")
		cfg.SessionCacheTTL = 0
	}

	opts := make([]auth.Option, 0, len(e.authOpts)+len(e.plugins)+3)
	opts = append(opts, auth.WithLogger(logger), auth.WithConfig(cfg))

	// A store in the DI container is the default; option-provided stores override it.
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		opts = append(opts, auth.WithStore(s))
	}
	opts = append(opts, e.authOpts...)
	for _, x := range e.plugins {
		opts = append(opts, auth.WithPlugin(x))
	}

	p, err := auth.NewProvider(opts...)
	if err != nil {
		return fmt.Errorf("depot: create provider: %w", err)
	}
	if e.config.CheckLog {
		cls, err := e.checkLogStore(p.Store(), cfg, func() (*grove.DB, error) {
			return forge.Inject[*grove.DB](fapp.Container())
		})
		if err != nil {
			return fmt.Errorf("depot: check log: %w", err)
		}
		p.Plugins().Register(checklog.NewRecorder(cls))
	}
	e.provider = p
	e.logger = logger

	e.apiHandler = api.New(p, fapp.Router())

	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("depot: register routes: %w", err)
		}
	}

	return nil
}

// Start creates indexes if enabled, starts the provider and follows
// session deletes for the cache.
func (e *Extension) Start(ctx context.Context) error {
	if e.provider == nil {
		return errors.New("depot: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.provider.Store().Migrate(ctx); err != nil {
			return fmt.Errorf("depot: migration failed: %w", err)
		}
		if e.groveLog != nil {
			if err := e.groveLog.Migrate(ctx); err != nil {
				return fmt.Errorf("depot: check log migration failed: %w", err)
			}
		}
	}

	if err := e.provider.Start(ctx); err != nil {
		return err
	}

	if !e.config.DisableWatch {
		e.watch(ctx)
	}
	return nil
}

func (e *Extension) watch(ctx context.Context) {
	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	e.stopWatch = cancel
	e.watchDone = make(chan struct{})
	go func() {
		defer close(e.watchDone)
		if err := e.provider.WatchSessions(wctx); err != nil && !errors.Is(err, depot.ErrNotSupported) {
			e.logger.Warn("session watch stopped", slog.String("error", err.Error()))
		}
	}()
}

// Stop cancels the session watch and shuts down the provider.
func (e *Extension) Stop(ctx context.Context) error {
	if e.provider == nil {
		return nil
	}
	if e.stopWatch != nil {
		e.stopWatch()
		select {
		case <-e.watchDone:
		case <-ctx.Done():
		}
	}
	return e.provider.Stop(ctx)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.provider == nil {
		return errors.New("depot: extension not initialized")
	}
	if err := e.provider.Store().Ping(ctx); err != nil {
		return err
	}
	if e.groveLog != nil {
		return e.groveLog.Ping(ctx)
	}
	return nil
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all depot API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
