package auth

import (
	"log/slog"

	"github.com/xraph/depot"
	"github.com/xraph/depot/plugin"
	"github.com/xraph/depot/store"
)

// Option is a functional option for the Provider.
type Option func(*Provider)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(p *Provider) { p.store = s } }

// WithCache sets the session cache. Without one (and with a zero
// Config.SessionCacheTTL) every token is looked up in the store.
func WithCache(c SessionCache) Option { return func(p *Provider) { p.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(p *Provider) { p.logger = l } }

// WithConfig sets the provider configuration.
func WithConfig(c depot.Config) Option { return func(p *Provider) { p.config = c.WithDefaults() } }

// WithTokenGenerator replaces the session token generator.
func WithTokenGenerator(g TokenGenerator) Option { return func(p *Provider) { p.newToken = g } }

// WithPlugin registers a plugin with the provider.
func WithPlugin(x plugin.Plugin) Option {
	return func(p *Provider) {
		if p.plugins == nil {
			p.plugins = plugin.NewRegistry(p.logger)
		}
		p.plugins.Register(x)
	}
}
