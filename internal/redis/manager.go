package redis

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pubky/franky/internal/setup/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// ErrRedisDisabled is returned when a client is requested while the feed is off.
var ErrRedisDisabled = errors.New("redis is disabled in config")

// Manager lazily creates and owns the Redis client used by the change feed.
type Manager struct {
	client rueidis.Client
	config *config.Redis
	logger *zap.Logger
	mu     sync.Mutex
}

// NewManager initializes the Redis connection manager.
// The client is created when first requested.
func NewManager(config *config.Redis, logger *zap.Logger) *Manager {
	return &Manager{
		config: config,
		logger: logger.Named("redis"),
	}
}

// GetClient retrieves or creates the Redis client for the configured database.
func (m *Manager) GetClient() (rueidis.Client, error) {
	if !m.config.Enabled {
		return nil, ErrRedisDisabled
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		return m.client, nil
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)},
		Username:     m.config.Username,
		Password:     m.config.Password,
		SelectDB:     m.config.DB,
		ClientName:   "franky",
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client for DB %d: %w", m.config.DB, err)
	}

	m.client = client
	m.logger.Info("Created new Redis client", zap.Int("dbIndex", m.config.DB))
	return client, nil
}

// Close shuts down the client if one was created. Safe to call multiple times.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return
	}

	m.client.Close()
	m.client = nil
	m.logger.Info("Closed Redis client", zap.Int("dbIndex", m.config.DB))
}
