package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v0.1.0"

// CurrentVersion is the current version of the config file.
const CurrentVersion = 1

// FileName is the name of the config file looked up in every search path.
const FileName = "franky.toml"

// Config represents the entire application configuration.
type Config struct {
	// Version of the config file.
	Version int    `koanf:"version"`
	Debug   Debug  `koanf:"debug"`
	SQLite  SQLite `koanf:"sqlite"`
	Retry   Retry  `koanf:"retry"`
	Cache   Cache  `koanf:"cache"`
	Redis   Redis  `koanf:"redis"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Directory that receives one session directory per run.
	LogDir string `koanf:"log_dir"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines kept in each log file. Zero keeps everything.
	MaxLogLines int `koanf:"max_log_lines"`
}

// SQLite contains the local store configuration.
type SQLite struct {
	// Path of the database file, or ":memory:".
	Path string `koanf:"path"`
	// Busy timeout in milliseconds.
	BusyTimeout int `koanf:"busy_timeout"`
	// Enable write-ahead logging.
	WAL bool `koanf:"wal"`
	// Maximum open connections. In-memory stores always use one.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Apply pending migrations on startup.
	AutoMigrate bool `koanf:"auto_migrate"`
}

// Retry contains retry configuration for lock contention.
type Retry struct {
	// Maximum retry attempts.
	MaxRetries uint64 `koanf:"max_retries"`
	// Initial retry delay in milliseconds.
	Delay int `koanf:"delay"`
	// Maximum retry delay in milliseconds.
	MaxDelay int `koanf:"max_delay"`
	// Give up after this many milliseconds.
	MaxElapsed int `koanf:"max_elapsed"`
}

// Cache contains the in-process post view cache configuration.
type Cache struct {
	// Enable the view cache.
	Enabled bool `koanf:"enabled"`
	// Maximum number of cached post views.
	MaxViews int64 `koanf:"max_views"`
	// Time to live in seconds. Zero keeps views until evicted.
	TTL int `koanf:"ttl"`
}

// Redis contains the change feed configuration.
type Redis struct {
	// Enable publishing change events.
	Enabled bool `koanf:"enabled"`
	// Redis hostname.
	Host string `koanf:"host"`
	// Redis port.
	Port int `koanf:"port"`
	// Redis username.
	Username string `koanf:"username"`
	// Redis password.
	Password string `koanf:"password"`
	// Database index.
	DB int `koanf:"db"`
	// Channel change events are published to.
	Channel string `koanf:"channel"`
	// Number of events kept in the history list.
	HistorySize int64 `koanf:"history_size"`
}

// Default returns the configuration used for every key the file leaves out.
func Default() Config {
	return Config{
		Debug: Debug{
			LogLevel:      "info",
			LogDir:        "logs",
			MaxLogsToKeep: 10,
			MaxLogLines:   10000,
		},
		SQLite: SQLite{
			Path:         "franky.db",
			BusyTimeout:  5000,
			WAL:          true,
			MaxOpenConns: 4,
			AutoMigrate:  true,
		},
		Retry: Retry{
			MaxRetries: 5,
			Delay:      50,
			MaxDelay:   1000,
			MaxElapsed: 10000,
		},
		Cache: Cache{
			Enabled:  true,
			MaxViews: 10000,
		},
		Redis: Redis{
			Host:        "localhost",
			Port:        6379,
			Channel:     "franky:changes",
			HistorySize: 1000,
		},
	}
}

// LoadConfig searches the config paths for the config file and loads the first one found.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configPaths := []string{
		".franky",
		homeDir + "/.franky/config",
		"/etc/franky/config",
		"config",
		".",
	}

	for _, path := range configPaths {
		configPath := filepath.Join(path, FileName)
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		cfg, err := LoadFile(configPath)
		if err != nil {
			return nil, "", err
		}

		return cfg, path, nil
	}

	return nil, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, FileName)
}

// LoadFile loads the configuration from a single file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	config := Default()
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion(config.Version, CurrentVersion); err != nil {
		return nil, err
	}

	return &config, nil
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s", ErrConfigVersionMissing, FileName)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/pubky/franky/tree/%s/config/%s",
			ErrConfigVersionMismatch,
			FileName,
			current,
			expected,
			RepositoryVersion,
			FileName,
		)
	}

	return nil
}
