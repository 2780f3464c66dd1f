package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"x402-lab/internal/domain"
	"x402-lab/internal/preset"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvPostgresDSN, EnvClickhouseDSN, EnvRedisAddr, EnvSeed} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSeed, cfg.Seed)
	assert.Equal(t, domain.DefaultConfig(), cfg.Simulation.Config)
	assert.Equal(t, "custom", cfg.Simulation.Name())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, time.Hour, cfg.Storage.CacheTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_PresetWithOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "x402.yaml", `
seed: 7
simulation:
  preset: github
  num_users: 12
  load_multiplier: 3
server:
  addr: ":9090"
  compare_interval: 5m
  presets: [openai, github]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	base, err := preset.Lookup("github")
	require.NoError(t, err)

	want := base.Config
	want.NumUsers = 12
	want.LoadMultiplier = 3

	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, "github", cfg.Simulation.Name())
	assert.Equal(t, want, cfg.Simulation.Config)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Server.CompareInterval)
	assert.Equal(t, []string{"openai", "github"}, cfg.Server.Presets)
}

func TestLoad_UnknownPreset(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "x402.yaml", "simulation:\n  preset: nowhere\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, preset.ErrUnknownPreset)
}

func TestLoad_InvalidSimulation(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "x402.yaml", "simulation:\n  num_users: 0\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestLoad_ExpandsAndOverridesFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("X402_TEST_PG_PASSWORD", "s3cret")
	t.Setenv(EnvRedisAddr, "cache:6379")
	t.Setenv(EnvSeed, "42")

	path := writeFile(t, t.TempDir(), "x402.yaml", `
storage:
  postgres_dsn: postgres://lab:${X402_TEST_PG_PASSWORD}@db/lab
  redis_addr: localhost:6379
  cache_ttl: ${X402_TEST_TTL:-10m}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://lab:s3cret@db/lab", cfg.Storage.PostgresDSN)
	assert.Equal(t, "cache:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 10*time.Minute, cfg.Storage.CacheTTL)
	assert.Equal(t, int64(42), cfg.Seed)
}

func TestLoad_InvalidSeedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvSeed, "abc")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad_DotEnvNextToConfig(t *testing.T) {
	clearEnv(t)
	const key = "X402_TEST_DOTENV_DSN"
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	writeFile(t, dir, ".env", key+"=clickhouse://dotenv:9000/lab\n")
	path := writeFile(t, dir, "x402.yaml", "storage:\n  clickhouse_dsn: ${"+key+"}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "clickhouse://dotenv:9000/lab", cfg.Storage.ClickhouseDSN)
}

func TestBackendOptions_UseMemory(t *testing.T) {
	cfg := Default()
	cfg.Storage.PostgresDSN = "postgres://x"
	cfg.Storage.RedisAddr = "localhost:6379"

	opts := cfg.BackendOptions()
	assert.Equal(t, "postgres://x", opts.PostgresDSN)
	assert.Equal(t, time.Hour, opts.CacheTTL)

	cfg.Storage.UseMemory = true
	opts = cfg.BackendOptions()
	assert.Empty(t, opts.PostgresDSN)
	assert.Empty(t, opts.RedisAddr)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("X402_TEST_HOST", "db")

	assert.Equal(t, "no vars", ExpandEnv("no vars"))
	assert.Equal(t, "host=db", ExpandEnv("host=${X402_TEST_HOST}"))
	assert.Equal(t, "port=5432", ExpandEnv("port=${X402_TEST_UNSET_PORT:-5432}"))
	assert.Equal(t, "x=", ExpandEnv("x=${X402_TEST_UNSET}"))
}
