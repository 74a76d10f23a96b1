package depot

import (
	"time"

	"dario.cat/mergo"
)

// Config holds runtime settings shared by the connector, the collection
// registry and the auth provider.
type Config struct {
	// Database is the database used when the connection string names none.
	Database string `json:"database,omitempty" mapstructure:"database" yaml:"database"`

	// OperationTimeout bounds every store call.
	// Defaults to 10s.
	OperationTimeout time.Duration `json:"operation_timeout,omitempty" mapstructure:"operation_timeout" yaml:"operation_timeout"`

	// ConnectTimeout bounds the initial connect and ping.
	// Defaults to 10s.
	ConnectTimeout time.Duration `json:"connect_timeout,omitempty" mapstructure:"connect_timeout" yaml:"connect_timeout"`

	// SessionTokenBytes is the amount of entropy in a session token.
	// Defaults to 32.
	SessionTokenBytes int `json:"session_token_bytes,omitempty" mapstructure:"session_token_bytes" yaml:"session_token_bytes"`

	// SessionCacheTTL is the time-to-live for cached session lookups.
	// Zero means sessions are always read from the store.
	SessionCacheTTL time.Duration `json:"session_cache_ttl,omitempty" mapstructure:"session_cache_ttl" yaml:"session_cache_ttl"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Database:          "test",
		OperationTimeout:  10 * time.Second,
		ConnectTimeout:    10 * time.Second,
		SessionTokenBytes: 32,
	}
}

// WithDefaults returns c with every zero field taken from DefaultConfig.
func (c Config) WithDefaults() Config {
	out := c
	// Merge only fails for mismatched types, which cannot happen here.
	_ = mergo.Merge(&out, DefaultConfig()) //nolint:errcheck // same-type merge
	return out
}
