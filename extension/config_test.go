package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigLeavesSessionCacheOff(t *testing.T) {
	cfg := DefaultConfig()
	assert.Zero(t, cfg.SessionCacheTTL)
	assert.False(t, cfg.DisableWatch)
}
