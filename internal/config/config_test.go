package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "locked-reports.wal", cfg.LockedWALPath)
	assert.Equal(t, 10000, cfg.AuditMaxEntries)
	assert.Equal(t, 8*time.Second, cfg.ProviderTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PROVIDER_TIMEOUT", "2s")
	t.Setenv("AUDIT_MAX_ENTRIES", "50")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 50, cfg.AuditMaxEntries)
	assert.True(t, cfg.RedisTLS)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("AUDIT_MAX_ENTRIES", "not-a-number")
	t.Setenv("PROVIDER_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 10000, cfg.AuditMaxEntries)
	assert.Equal(t, 8*time.Second, cfg.ProviderTimeout)
}
