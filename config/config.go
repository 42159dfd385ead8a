package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all classgen configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Allocation AllocationConfig `yaml:"allocation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string `yaml:"addr"`          // Listen address, e.g. ":8080"
	MaxUploadMB int    `yaml:"max_upload_mb"` // Allocation request body limit
}

// RedisConfig configures run storage. When disabled runs live in memory.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	RunTTL   string `yaml:"run_ttl"` // e.g. "720h"; empty keeps runs forever
}

// AllocationConfig shapes the classes being filled.
type AllocationConfig struct {
	ClassCount int `yaml:"class_count"`
	Capacity   int `yaml:"capacity"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 8,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "127.0.0.1:6379",
			DB:      8,
			RunTTL:  "720h",
		},
		Allocation: AllocationConfig{
			ClassCount: 4,
			Capacity:   18,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file over the defaults. An empty path
// or a missing file yields the defaults. Environment overrides are applied
// last and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("CLASSGEN_SERVER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if addr := os.Getenv("CLASSGEN_REDIS_ADDR"); addr != "" {
		c.Redis.Addr = addr
		c.Redis.Enabled = true
	}
	if pw := os.Getenv("CLASSGEN_REDIS_PASSWORD"); pw != "" {
		c.Redis.Password = pw
	}
	if v := os.Getenv("CLASSGEN_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if lvl := os.Getenv("CLASSGEN_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
}

// GetRunTTL returns how long stored runs are kept. Zero means forever.
func (c *Config) GetRunTTL() time.Duration {
	if c.Redis.RunTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Redis.RunTTL)
	if err != nil {
		return 0
	}
	return d
}

// MaxUploadBytes is the allocation request body limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Allocation.ClassCount <= 0 {
		return fmt.Errorf("allocation.class_count must be positive, got %d", c.Allocation.ClassCount)
	}
	if c.Allocation.Capacity <= 0 {
		return fmt.Errorf("allocation.capacity must be positive, got %d", c.Allocation.Capacity)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Redis.RunTTL != "" {
		if _, err := time.ParseDuration(c.Redis.RunTTL); err != nil {
			return fmt.Errorf("invalid redis.run_ttl %q: %w", c.Redis.RunTTL, err)
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format %q (valid: json, console)", c.Logging.Format)
	}
	return nil
}
