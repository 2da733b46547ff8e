package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringsidehq/ringside/pkg/observability"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("RINGSIDE_POSTGRES_URL", "postgres://localhost/ringside_test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Matching.RequestTTL)
	assert.Equal(t, 5.0, cfg.Matching.MaxWeightDeltaKg)
	assert.Equal(t, 10, cfg.Matching.MaxFightCountDelta)
	assert.Equal(t, "@every 5m", cfg.Sweeper.Schedule)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Database.RunMigrations)
}

func TestLoadConfig_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("RINGSIDE_POSTGRES_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("RINGSIDE_POSTGRES_URL", "postgres://localhost/ringside_test")
	t.Setenv("RINGSIDE_CACHE_BACKEND", "memory")
	t.Setenv("RINGSIDE_AUTHZ_CACHE_TTL", "90s")
	t.Setenv("RINGSIDE_MAX_WEIGHT_DELTA_KG", "3.5")
	t.Setenv("RINGSIDE_MAX_FIGHT_COUNT_DELTA", "4")
	t.Setenv("RINGSIDE_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 3.5, cfg.Matching.MaxWeightDeltaKg)
	assert.Equal(t, 4, cfg.Matching.MaxFightCountDelta)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)

	rules := cfg.CompatibilityRules()
	assert.Equal(t, 3.5, rules.MaxWeightDeltaKg)
	assert.Equal(t, 4, rules.MaxFightCountDelta)
}

func TestValidate_RejectsUnknownCacheBackend(t *testing.T) {
	t.Setenv("RINGSIDE_POSTGRES_URL", "postgres://localhost/ringside_test")
	t.Setenv("RINGSIDE_CACHE_BACKEND", "memcached")

	_, err := LoadConfig()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cache backend")
}

func TestValidate_RejectsNonPositiveRequestTTL(t *testing.T) {
	t.Setenv("RINGSIDE_POSTGRES_URL", "postgres://localhost/ringside_test")
	t.Setenv("RINGSIDE_MATCH_REQUEST_TTL", "-1h")

	_, err := LoadConfig()
	assert.Error(t, err)
}
