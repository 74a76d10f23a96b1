package extension

import "time"

// Config holds the depot extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.depot" or "depot" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents index creation on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// DisableWatch prevents the session change stream from starting.
	DisableWatch bool `json:"disable_watch" mapstructure:"disable_watch" yaml:"disable_watch"`

	// CheckLog records every auth decision when the store supports it.
	CheckLog bool `json:"check_log" mapstructure:"check_log" yaml:"check_log"`

	// SessionCacheTTL enables the in-process session cache when positive.
	// It needs the session watch, so it is ignored when DisableWatch is set.
	SessionCacheTTL time.Duration `json:"session_cache_ttl" mapstructure:"session_cache_ttl" yaml:"session_cache_ttl"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{}
}
