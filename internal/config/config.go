// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal containers

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/mindgym/internal/api"
	"github.com/mcoot/mindgym/internal/factory"
	"github.com/mcoot/mindgym/internal/services/session"
	redisstorage "github.com/mcoot/mindgym/internal/storage/redis"
)

// Config is the server configuration
type Config struct {
	Host        string        `env:"MINDGYM_ADDR"`
	Port        int           `env:"MINDGYM_PORT"  envDefault:"8080"`
	StorageType string        `env:"STORAGE_TYPE"  envDefault:"memory"`
	RedisURL    string        `env:"REDIS_URL"`
	SQLitePath  string        `env:"SQLITE_PATH"   envDefault:"mindgym.db"`
	SessionTTL  time.Duration `env:"SESSION_TTL"   envDefault:"24h"`
	Timezone    string        `env:"TIMEZONE"      envDefault:"UTC"`
	LogLevel    string        `env:"LOG_LEVEL"     envDefault:"info"`

	// How often expired sessions and idle SSE hubs are swept
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1m"`
}

// Load parses the configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.CleanupInterval <= 0 {
		return Config{}, fmt.Errorf("CLEANUP_INTERVAL must be positive, got %s", cfg.CleanupInterval)
	}
	return cfg, nil
}

// Location returns the time zone streak days are counted in
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level returns the slog level named by LOG_LEVEL
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	return level, nil
}

// Server returns the HTTP server configuration
func (c Config) Server() api.ServerConfig {
	cfg := api.DefaultServerConfig()
	cfg.Host = c.Host
	cfg.Port = c.Port
	return cfg
}

// Factory returns the application factory configuration
func (c Config) Factory(logger *slog.Logger) (factory.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return factory.Config{}, err
	}

	cfg := factory.Config{
		SessionConfig: session.Config{SessionDuration: c.SessionTTL},
		Location:      loc,
		Logger:        logger,
		StorageType:   c.StorageType,
	}

	switch c.StorageType {
	case factory.StorageTypeRedis:
		if c.RedisURL == "" {
			return factory.Config{}, fmt.Errorf("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.SessionTTL = c.SessionTTL
		cfg.RedisConfig = &redisCfg
	case factory.StorageTypeSQLite:
		cfg.SQLitePath = c.SQLitePath
	}

	return cfg, nil
}
