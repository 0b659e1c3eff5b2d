package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pubky/franky/internal/cache"
	"github.com/pubky/franky/internal/database/dbretry"
	"github.com/pubky/franky/internal/database/migrations"
	"github.com/pubky/franky/internal/database/service"
	"github.com/pubky/franky/internal/database/types"
	"github.com/pubky/franky/internal/events"
	"github.com/pubky/franky/internal/setup/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bunjson"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory store.
const MemoryPath = ":memory:"

// sonicProvider is a JSON provider that uses Sonic for encoding and decoding.
type sonicProvider struct{}

func (sonicProvider) Marshal(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

func (sonicProvider) Unmarshal(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

func (sonicProvider) NewEncoder(w io.Writer) bunjson.Encoder {
	return sonic.ConfigDefault.NewEncoder(w)
}

func (sonicProvider) NewDecoder(r io.Reader) bunjson.Decoder {
	return sonic.ConfigDefault.NewDecoder(r)
}

// Client defines the methods that a database client must implement.
type Client interface {
	// Model returns the repository containing all model operations.
	Model() *Repository
	// Service returns the service containing all service operations.
	Service() *Service
	// Close gracefully shuts down the database connection.
	Close() error
	// DB returns the underlying bun.DB instance.
	DB() *bun.DB
}

// Option customizes a connection.
type Option func(*options)

type options struct {
	observers service.Observers
}

// WithViewCache puts a post view cache in front of the store.
func WithViewCache(views *cache.ViewCache) Option {
	return func(o *options) {
		o.observers.Views = views
	}
}

// WithNotifier publishes committed changes to the notifier.
func WithNotifier(notifier events.Notifier) Option {
	return func(o *options) {
		o.observers.Notifier = notifier
	}
}

// clientImpl represents the concrete implementation of the database client.
type clientImpl struct {
	db      *bun.DB
	logger  *zap.Logger
	repo    *Repository
	service *Service
}

// NewConnection opens the local store and returns a Client instance.
// Failures to open the store are DB_INIT_FAILED and failures to bring the
// schema up to date are DB_SCHEMA_ERROR.
func NewConnection(
	ctx context.Context, config *config.SQLite, logger *zap.Logger, autoMigrate bool, opts ...Option,
) (Client, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	db, err := Open(config, logger)
	if err != nil {
		return nil, err
	}

	if autoMigrate {
		if err := Migrate(ctx, db, logger); err != nil {
			db.Close()
			return nil, err
		}
	}

	repo := NewRepository(logger)
	svc := NewService(db, repo, o.observers, logger)

	client := &clientImpl{
		db:      db,
		logger:  logger,
		repo:    repo,
		service: svc,
	}

	logger.Info("Database connection established", zap.String("path", config.Path))

	return client, nil
}

// Open opens the store without touching the schema.
func Open(config *config.SQLite, logger *zap.Logger) (*bun.DB, error) {
	path := config.Path
	if path == "" {
		path = MemoryPath
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, types.NewDatabaseError(types.ErrorKindInitFailed, "failed to create store directory", err,
				map[string]any{"path": path})
		}
	}

	sqldb, err := sql.Open("sqlite", BuildDSN(config))
	if err != nil {
		return nil, types.NewDatabaseError(types.ErrorKindInitFailed, "failed to open store", err,
			map[string]any{"path": path})
	}

	// Every connection to ":memory:" is a separate database
	if path == MemoryPath {
		sqldb.SetMaxOpenConns(1)
	} else if config.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(config.MaxOpenConns)
	}
	sqldb.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		return nil, types.NewDatabaseError(types.ErrorKindInitFailed, "failed to open store", err,
			map[string]any{"path": path})
	}

	// Set Sonic as the JSON provider
	bunjson.SetProvider(sonicProvider{})

	db := bun.NewDB(sqldb, sqlitedialect.New())

	// Add query hook for monitoring
	db.AddQueryHook(NewHook(logger))

	return db, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *bun.DB, logger *zap.Logger) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		return migrator.Init(ctx)
	})
	if err != nil {
		return types.NewDatabaseError(types.ErrorKindSchemaError, "failed to initialize migrations", err, nil)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return types.NewDatabaseError(types.ErrorKindSchemaError, "failed to run migrations", err, nil)
	}

	if !group.IsZero() {
		logger.Info("Automatically ran migrations", zap.String("group", group.String()))
	}

	return nil
}

// BuildDSN builds the driver DSN with the pragmas every connection needs.
func BuildDSN(config *config.SQLite) string {
	path := config.Path
	if path == "" {
		path = MemoryPath
	}

	query := url.Values{}
	query.Add("_pragma", "foreign_keys(1)")
	if config.BusyTimeout > 0 {
		query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.BusyTimeout))
	}
	if config.WAL && path != MemoryPath {
		query.Add("_pragma", "journal_mode(WAL)")
		query.Add("_pragma", "synchronous(NORMAL)")
	}
	query.Set("_txlock", "immediate")

	return path + "?" + query.Encode()
}

// Close gracefully shuts down the database connection.
func (c *clientImpl) Close() error {
	err := c.db.Close()
	if err != nil {
		c.logger.Error("Failed to close database connection", zap.Error(err))
		return err
	}

	c.logger.Info("Database connection closed")

	return nil
}

// Model returns the repository containing all model operations.
func (c *clientImpl) Model() *Repository {
	return c.repo
}

// Service returns the service containing all service operations.
func (c *clientImpl) Service() *Service {
	return c.service
}

// DB returns the underlying bun.DB instance.
func (c *clientImpl) DB() *bun.DB {
	return c.db
}
