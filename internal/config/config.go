// Package config loads the YAML configuration shared by the commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"x402-lab/internal/domain"
	"x402-lab/internal/preset"
	"x402-lab/internal/storage/backends"
)

// Environment overrides, applied after the file.
const (
	EnvPostgresDSN   = "POSTGRES_DSN"
	EnvClickhouseDSN = "CLICKHOUSE_DSN"
	EnvRedisAddr     = "REDIS_ADDR"
	EnvSeed          = "X402_SEED"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = errors.New("invalid config")

// Config is the full configuration file.
type Config struct {
	Seed       int64         `yaml:"seed"`
	Simulation Simulation    `yaml:"simulation"`
	Storage    StorageConfig `yaml:"storage"`
	Server     ServerConfig  `yaml:"server"`
	Logging    LoggingConfig `yaml:"logging"`
}

// Simulation names a preset and overrides individual fields of it.
//
//	simulation:
//	  preset: openai
//	  num_users: 50
type Simulation struct {
	Preset string
	Config domain.SimulationConfig
}

// StorageConfig selects storage backends. Empty DSNs fall back to memory.
type StorageConfig struct {
	PostgresDSN   string        `yaml:"postgres_dsn"`
	ClickhouseDSN string        `yaml:"clickhouse_dsn"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	CacheTTL      time.Duration `yaml:"cache_ttl"`
	UseMemory     bool          `yaml:"use_memory"` // ignore every DSN
}

// ServerConfig configures cmd/server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// CompareInterval reruns the presets periodically, 0 disables.
	CompareInterval time.Duration `yaml:"compare_interval"`
	Presets         []string      `yaml:"presets"`
}

// LoggingConfig configures the logrus logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Seed:       domain.DefaultSeed,
		Simulation: Simulation{Config: domain.DefaultConfig()},
		Storage:    StorageConfig{CacheTTL: time.Hour},
		Server: ServerConfig{
			Addr:    ":8080",
			Presets: []string{"all"},
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// UnmarshalYAML layers the section's fields over the named preset,
// or over the defaults when no preset is named.
func (s *Simulation) UnmarshalYAML(value *yaml.Node) error {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := value.Decode(&head); err != nil {
		return err
	}

	cfg := domain.DefaultConfig()
	if head.Preset != "" {
		p, err := preset.Lookup(head.Preset)
		if err != nil {
			return err
		}
		cfg = p.Config
	}

	// Unset fields keep the preset's values
	if err := value.Decode(&cfg); err != nil {
		return err
	}

	s.Preset = head.Preset
	s.Config = cfg
	return nil
}

// Name returns the preset name, or "custom" when none is set.
func (s Simulation) Name() string {
	if s.Preset == "" {
		return "custom"
	}
	return s.Preset
}

// Load reads path after loading .env files, expands ${VAR} references and
// applies environment overrides. An empty path yields Default plus overrides.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(path); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory and from the config
// file's directory. Missing files are skipped; set variables are kept.
func LoadDotEnv(configPath string) error {
	paths := []string{".env"}
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(abs), ".env"))
		}
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ExpandEnv replaces ${VAR} and ${VAR:-default} with environment values.
// Unset variables without a default expand to "".
func ExpandEnv(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return os.Expand(s, func(key string) string {
		name, def, hasDefault := strings.Cut(key, ":-")
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
		if hasDefault {
			return def
		}
		return ""
	})
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		c.Storage.PostgresDSN = v
	}
	if v := os.Getenv(EnvClickhouseDSN); v != "" {
		c.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv(EnvSeed); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, EnvSeed, v)
		}
		c.Seed = seed
	}
	return nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Seed < 0 {
		return fmt.Errorf("%w: seed must be non-negative", ErrInvalid)
	}
	if err := c.Simulation.Config.Validate(); err != nil {
		return fmt.Errorf("%w: simulation: %w", ErrInvalid, err)
	}
	if c.Server.CompareInterval < 0 {
		return fmt.Errorf("%w: server.compare_interval must be non-negative", ErrInvalid)
	}
	if c.Storage.CacheTTL < 0 {
		return fmt.Errorf("%w: storage.cache_ttl must be non-negative", ErrInvalid)
	}
	return nil
}

// BackendOptions converts the storage section for backends.Open.
func (c *Config) BackendOptions() backends.Options {
	if c.Storage.UseMemory {
		return backends.Options{}
	}
	return backends.Options{
		PostgresDSN:   c.Storage.PostgresDSN,
		ClickhouseDSN: c.Storage.ClickhouseDSN,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		CacheTTL:      c.Storage.CacheTTL,
	}
}
