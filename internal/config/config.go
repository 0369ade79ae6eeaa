// Package config loads service configuration from an optional YAML or TOML
// file, then applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/cindral/core/internal/graph"
	"github.com/cindral/core/internal/positions"
)

const (
	SourceSQL  = "sql"
	SourceHTTP = "http"

	PositionsMemory = "memory"
	PositionsRedis  = "redis"
	PositionsSQL    = "sql"
)

type ServerConfig struct {
	Port            string        `yaml:"port" toml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins" toml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// SourceConfig selects where the dataset comes from: the local SQL store or
// the external compliance backend.
type SourceConfig struct {
	Kind    string  `yaml:"kind" toml:"kind"`
	Driver  string  `yaml:"driver" toml:"driver"`
	DSN     string  `yaml:"dsn" toml:"dsn"`
	BaseURL string  `yaml:"base_url" toml:"base_url"`
	Token   string  `yaml:"token" toml:"token"`
	RPS     float64 `yaml:"rps" toml:"rps"`
	Burst   int     `yaml:"burst" toml:"burst"`
}

type PositionsConfig struct {
	Backend       string        `yaml:"backend" toml:"backend"`
	Prefix        string        `yaml:"prefix" toml:"prefix"`
	RedisAddr     string        `yaml:"redis_addr" toml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password" toml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" toml:"redis_db"`
	TTL           time.Duration `yaml:"ttl" toml:"ttl"`
}

// RateLimitConfig bounds requests per tenant on the HTTP API.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" toml:"rps"`
	Burst int     `yaml:"burst" toml:"burst"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Log       LogConfig       `yaml:"log" toml:"log"`
	Source    SourceConfig    `yaml:"source" toml:"source"`
	Positions PositionsConfig `yaml:"positions" toml:"positions"`
	Layout    graph.Layout    `yaml:"layout" toml:"layout"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8080",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Source: SourceConfig{
			Kind:   SourceSQL,
			Driver: "sqlite",
			DSN:    "cindral.db",
			RPS:    10,
			Burst:  20,
		},
		Positions: PositionsConfig{
			Backend: PositionsSQL,
			Prefix:  positions.DefaultPrefix,
		},
		Layout:    graph.DefaultLayout(),
		RateLimit: RateLimitConfig{RPS: 20, Burst: 40},
	}
}

// Load starts from Default, decodes path when it is not empty, then applies
// the environment. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGIN"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Source.Kind = SourceSQL
		cfg.Source.DSN = v
		if strings.HasPrefix(v, "postgres://") || strings.HasPrefix(v, "postgresql://") {
			cfg.Source.Driver = "postgres"
		}
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Source.Driver = v
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		cfg.Source.Kind = SourceHTTP
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("BACKEND_TOKEN"); v != "" {
		cfg.Source.Token = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Positions.Backend = PositionsRedis
		cfg.Positions.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Positions.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.Positions.RedisDB = db
	}
	if v := os.Getenv("POSITIONS_BACKEND"); v != "" {
		cfg.Positions.Backend = v
	}
	if v := os.Getenv("POSITIONS_PREFIX"); v != "" {
		cfg.Positions.Prefix = v
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
		cfg.RateLimit.RPS = rps
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}

	switch c.Source.Kind {
	case SourceSQL:
		if c.Source.DSN == "" {
			errs = append(errs, errors.New("source.dsn is required for the sql source"))
		}
	case SourceHTTP:
		if c.Source.BaseURL == "" {
			errs = append(errs, errors.New("source.base_url is required for the http source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source.kind %q", c.Source.Kind))
	}

	switch c.Positions.Backend {
	case PositionsMemory:
	case PositionsRedis:
		if c.Positions.RedisAddr == "" {
			errs = append(errs, errors.New("positions.redis_addr is required for the redis backend"))
		}
	case PositionsSQL:
		if c.Source.Kind != SourceSQL {
			errs = append(errs, errors.New("positions.backend sql needs the sql source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown positions.backend %q", c.Positions.Backend))
	}

	if c.Layout.RowGap <= 0 {
		errs = append(errs, errors.New("layout.row_gap must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
