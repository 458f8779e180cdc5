package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/mindgym/internal/dependencies/clock"
	"github.com/mcoot/mindgym/internal/dependencies/random"
	"github.com/mcoot/mindgym/internal/services/progression"
	"github.com/mcoot/mindgym/internal/services/session"
	"github.com/mcoot/mindgym/internal/sse"
	"github.com/mcoot/mindgym/internal/storage"
	"github.com/mcoot/mindgym/internal/storage/memory"
	redisstorage "github.com/mcoot/mindgym/internal/storage/redis"
	sqlitestorage "github.com/mcoot/mindgym/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Engine             *progression.Engine
	SessionManager     *session.Manager
	ProgressionService *progression.Service
	HubManager         *sse.HubManager
	Publisher          *sse.Publisher
}

// Config holds configuration for the application factory
type Config struct {
	// SessionConfig holds configuration for the session manager (optional)
	// If zero value, defaults to session.DefaultConfig()
	SessionConfig session.Config
	// Location is the time zone streak days are counted in (optional)
	// If nil, UTC is used
	Location *time.Location
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	sessionCfg := cfg.SessionConfig
	if sessionCfg.SessionDuration == 0 {
		sessionCfg = session.DefaultConfig()
	}

	return newWithDependencies(store, clock.New(), random.New(), sessionCfg, cfg.Location, logger), nil
}

func newStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return redisStore, nil
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		return sqlitestorage.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	sessionCfg session.Config,
	loc *time.Location,
	logger *slog.Logger,
) *App {
	engine := progression.NewEngine(loc)
	sessionManager := session.NewManager(store, clk, rnd, logger, sessionCfg)
	progressionService := progression.New(sessionManager, engine, clk, logger)
	hubManager := sse.NewHubManager(logger)
	publisher := sse.NewPublisher(hubManager, logger)

	sessionManager.Observe(publisher.Publish)

	return &App{
		Storage:            store,
		Clock:              clk,
		Random:             rnd,
		Engine:             engine,
		SessionManager:     sessionManager,
		ProgressionService: progressionService,
		HubManager:         hubManager,
		Publisher:          publisher,
	}
}

// Close stops every SSE hub and releases the storage backend
func (a *App) Close() error {
	a.HubManager.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
