package setup

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/pubky/franky/internal/cache"
	"github.com/pubky/franky/internal/database"
	"github.com/pubky/franky/internal/database/dbretry"
	"github.com/pubky/franky/internal/events"
	"github.com/pubky/franky/internal/redis"
	"github.com/pubky/franky/internal/setup/config"
	"github.com/pubky/franky/internal/setup/telemetry"
	"go.uber.org/zap"
)

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config     // Application configuration
	ConfigDir    string             // Directory the config was loaded from
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Local store
	Views        *cache.ViewCache   // Post view cache, nil when disabled
	Notifier     events.Notifier    // Change feed
	RedisManager *redis.Manager     // Redis connection manager
	LogManager   *telemetry.Manager // Log management system
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
// An empty configPath searches the default config locations.
func InitializeApp(ctx context.Context, configPath string, autoMigrate bool) (*App, error) {
	cfg, configDir, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(&cfg.Debug)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	dbretry.Configure(dbretry.Options{
		MaxRetries:      cfg.Retry.MaxRetries,
		InitialInterval: time.Duration(cfg.Retry.Delay) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.Retry.MaxDelay) * time.Millisecond,
		MaxElapsedTime:  time.Duration(cfg.Retry.MaxElapsed) * time.Millisecond,
	})

	views, err := cache.New(&cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	// Change events go to Redis only when it is configured
	redisManager := redis.NewManager(&cfg.Redis, logger)

	var notifier events.Notifier = events.NopNotifier{}

	client, err := redisManager.GetClient()
	switch {
	case err == nil:
		notifier = events.NewRedisNotifier(client, cfg.Redis.Channel, cfg.Redis.HistorySize, logger)
	case errors.Is(err, redis.ErrRedisDisabled):
		logger.Debug("Change feed disabled")
	default:
		logger.Error("Failed to connect change feed, continuing without it", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &cfg.SQLite, dbLogger, autoMigrate && cfg.SQLite.AutoMigrate,
		database.WithViewCache(views),
		database.WithNotifier(notifier),
	)
	if err != nil {
		views.Close()
		redisManager.Close()
		return nil, err
	}

	return &App{
		Config:       cfg,
		ConfigDir:    configDir,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		Views:        views,
		Notifier:     notifier,
		RedisManager: redisManager,
		LogManager:   logManager,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup() {
	// Close database connections
	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	s.Views.Close()

	// Close Redis connections last as the services publish through it
	s.RedisManager.Close()

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}
}

func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		return config.LoadConfig()
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, "", err
	}

	return cfg, path, nil
}
