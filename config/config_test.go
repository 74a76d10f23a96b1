package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/depot"
	"github.com/xraph/depot/collection"
)

var _ collection.URIResolver = (*Config)(nil)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const sample = `
database: tml
operation_timeout: 5s
log_level: debug
mongo:
  default: mongodb://localhost:27017/tml
  tml_interface_rides: mongodb://rides.internal:27017/rides
`

func TestLoadFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "tml", cfg.Database)
	assert.Equal(t, 5*time.Second, cfg.OperationTimeout)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout, "unset values keep defaults")
	assert.Equal(t, 32, cfg.SessionTokenBytes)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("DEPOT_OPERATION_TIMEOUT", "2s")
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.OperationTimeout)
}

func TestResolveOrder(t *testing.T) {
	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	uri, err := cfg.Resolve("TML_INTERFACE_RIDES")
	require.NoError(t, err)
	assert.Equal(t, "mongodb://rides.internal:27017/rides", uri)

	uri, err = cfg.Resolve("TML_INTERFACE_STOPS")
	require.NoError(t, err)
	assert.Equal(t, "mongodb://localhost:27017/tml", uri)

	t.Setenv("TML_INTERFACE_RIDES", "mongodb://override:27017/rides")
	uri, err = cfg.Resolve("TML_INTERFACE_RIDES")
	require.NoError(t, err)
	assert.Equal(t, "mongodb://override:27017/rides", uri)
}

func TestResolveMissing(t *testing.T) {
	cfg, err := Load(writeConfig(t, "database: tml\n"))
	require.NoError(t, err)

	_, err = cfg.Resolve("TML_INTERFACE_AUTH")
	assert.True(t, errors.Is(err, depot.ErrConnection))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLevelFallback(t *testing.T) {
	cfg := &Config{LogLevel: "loud"}
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}
