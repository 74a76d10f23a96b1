// Package config loads depot settings from a YAML file and the
// environment, and resolves collection connection strings.
//
// A file looks like:
//
//	database: tml
//	operation_timeout: 5s
//	session_cache_ttl: 30s
//	log_level: debug
//	mongo:
//	  default: mongodb://localhost:27017/tml
//	  tml_interface_rides: mongodb://rides.internal:27017/rides
//
// Every top-level key can be overridden with a DEPOT_ prefixed environment
// variable (DEPOT_OPERATION_TIMEOUT=2s). Connection strings are looked up
// by their own variable name first (TML_INTERFACE_RIDES), then under
// mongo.<name>, then mongo.default.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/xraph/depot"
)

// Config is the loaded configuration. It implements collection.URIResolver.
type Config struct {
	depot.Config `mapstructure:",squash"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `mapstructure:"log_level"`

	mu sync.Mutex // viper is not safe for concurrent writes
	v  *viper.Viper
}

// Load reads path (YAML) when it is non-empty, otherwise ./depot.yaml if
// present, and applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DEPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := depot.DefaultConfig()
	v.SetDefault("database", def.Database)
	v.SetDefault("operation_timeout", def.OperationTimeout)
	v.SetDefault("connect_timeout", def.ConnectTimeout)
	v.SetDefault("session_token_bytes", def.SessionTokenBytes)
	v.SetDefault("session_cache_ttl", def.SessionCacheTTL)
	v.SetDefault("log_level", "info")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("depot/config: read %s: %w", path, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("depot")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("depot/config: read config: %w", err)
			}
		}
	}

	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("depot/config: unmarshal: %w", err)
	}
	cfg.Config = cfg.Config.WithDefaults()
	return cfg, nil
}

// Resolve returns the connection string for name: the environment
// variable called name, then mongo.<name>, then mongo.default.
func (c *Config) Resolve(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := "env." + strings.ToLower(name)
	if err := c.v.BindEnv(key, name); err != nil {
		return "", fmt.Errorf("depot/config: bind %s: %w", name, err)
	}
	if uri := c.v.GetString(key); uri != "" {
		return uri, nil
	}
	if uri := c.v.GetString("mongo." + strings.ToLower(name)); uri != "" {
		return uri, nil
	}
	if uri := c.v.GetString("mongo.default"); uri != "" {
		return uri, nil
	}
	return "", fmt.Errorf("%w: %s is not set", depot.ErrConnection, name)
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
