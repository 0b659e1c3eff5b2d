package telemetry_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pubky/franky/internal/setup/config"
	"github.com/pubky/franky/internal/setup/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggersCreatesSession(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	manager := telemetry.NewManager(&config.Debug{LogLevel: "debug", LogDir: logDir, MaxLogsToKeep: 3})

	mainLogger, dbLogger, err := manager.GetLoggers()
	require.NoError(t, err)

	mainLogger.Info("hello")
	dbLogger.Info("query")
	require.NoError(t, mainLogger.Sync())
	require.NoError(t, dbLogger.Sync())

	sessionDir := manager.GetCurrentSessionDir()
	assert.FileExists(t, filepath.Join(sessionDir, "main.log"))
	assert.FileExists(t, filepath.Join(sessionDir, "database.log"))
	assert.NotEmpty(t, manager.GetInstanceID())
}

func TestGetLoggersRotatesSessions(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	for _, name := range []string{"old-1", "old-2", "old-3"} {
		require.NoError(t, os.MkdirAll(filepath.Join(logDir, name), 0o755))
	}

	manager := telemetry.NewManager(&config.Debug{LogLevel: "info", LogDir: logDir, MaxLogsToKeep: 2})
	_, _, err := manager.GetLoggers()
	require.NoError(t, err)

	sessions, err := filepath.Glob(filepath.Join(logDir, "*"))
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
	assert.Contains(t, sessions, manager.GetCurrentSessionDir())
}

func TestGetLoggersInvalidLevel(t *testing.T) {
	t.Parallel()

	manager := telemetry.NewManager(&config.Debug{LogLevel: "loud", LogDir: t.TempDir(), MaxLogsToKeep: 1})
	_, _, err := manager.GetLoggers()
	require.Error(t, err)
}

func TestGetLoggersCapsLines(t *testing.T) {
	t.Parallel()

	manager := telemetry.NewManager(&config.Debug{
		LogLevel:      "info",
		LogDir:        t.TempDir(),
		MaxLogsToKeep: 1,
		MaxLogLines:   5,
	})

	mainLogger, _, err := manager.GetLoggers()
	require.NoError(t, err)

	for i := 1; i <= 12; i++ {
		mainLogger.Info(fmt.Sprintf("entry %d", i))
	}
	require.NoError(t, mainLogger.Sync())

	data, err := os.ReadFile(filepath.Join(manager.GetCurrentSessionDir(), "main.log"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "entry 6")
	assert.Contains(t, lines[6], "entry 12")
}
