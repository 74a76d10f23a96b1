package extension

import (
	"log/slog"

	"github.com/xraph/grove"

	"github.com/xraph/depot/auth"
	"github.com/xraph/depot/plugin"
	"github.com/xraph/depot/store"
)

// ExtOption configures the depot Forge extension.
type ExtOption func(*Extension)

// WithStore sets the persistence backend.
func WithStore(s store.Store) ExtOption {
	return func(e *Extension) {
		e.authOpts = append(e.authOpts, auth.WithStore(s))
	}
}

// WithConfig sets the extension configuration.
func WithConfig(cfg Config) ExtOption {
	return func(e *Extension) {
		e.config = cfg
	}
}

// WithProviderOptions adds auth provider options.
func WithProviderOptions(opts ...auth.Option) ExtOption {
	return func(e *Extension) {
		e.authOpts = append(e.authOpts, opts...)
	}
}

// WithPlugin registers a lifecycle hook plugin.
func WithPlugin(x plugin.Plugin) ExtOption {
	return func(e *Extension) {
		e.plugins = append(e.plugins, x)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ExtOption {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithDisableRoutes disables the registration of HTTP routes.
func WithDisableRoutes() ExtOption {
	return func(e *Extension) {
		e.config.DisableRoutes = true
	}
}

// WithDisableMigrate disables index creation on start.
func WithDisableMigrate() ExtOption {
	return func(e *Extension) {
		e.config.DisableMigrate = true
	}
}

// WithGroveDatabase writes the check log to a grove-managed MongoDB
// database instead of the auth store. A nil db resolves the default
// *grove.DB from the DI container. It only matters when Config.CheckLog is
// set.
func WithGroveDatabase(db *grove.DB) ExtOption {
	return func(e *Extension) {
		e.useGrove = true
		e.groveDB = db
	}
}
