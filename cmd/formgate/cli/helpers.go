package cli

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/formgate/formgate/internal/config"
	"github.com/formgate/formgate/internal/connector"
	"github.com/formgate/formgate/internal/connector/mssql"
	"github.com/formgate/formgate/internal/connector/mysql"
	"github.com/formgate/formgate/internal/connector/oracle"
	"github.com/formgate/formgate/internal/connector/postgres"
	"github.com/formgate/formgate/internal/connector/snowflake"
	"github.com/formgate/formgate/internal/connector/sqlite"
	"github.com/formgate/formgate/internal/connector/static"
)

// dataDir holds the --data-dir persistent flag value (set on root command).
var dataDir string

// resolveDataDir returns the data directory from --data-dir flag,
// FORMGATE_DATA_DIR env var, or ~/.formgate as fallback.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if envDir := os.Getenv("FORMGATE_DATA_DIR"); envDir != "" {
		return envDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".formgate")
}

// openConfigStore opens the SQLite key store, defaulting to ~/.formgate
// if no data dir was specified.
func openConfigStore() (*config.Store, error) {
	return config.NewStore(resolveDataDir())
}

// newRegistry creates a connector registry with every supported upstream
// driver registered.
func newRegistry() *connector.Registry {
	registry := connector.NewRegistry()
	registry.RegisterDriver("postgres", postgres.New)
	registry.RegisterDriver("mysql", mysql.New)
	registry.RegisterDriver("mssql", mssql.New)
	registry.RegisterDriver("oracle", oracle.New)
	registry.RegisterDriver("snowflake", snowflake.New)
	registry.RegisterDriver("sqlite", sqlite.New)
	registry.RegisterDriver("static", static.New)
	return registry
}

// newLogger builds the process logger from the logging section. dev forces
// debug level.
func newLogger(cfg config.LoggingConfig, dev bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// --- PID file management ---

func pidFilePath() string {
	return filepath.Join(resolveDataDir(), "formgate.pid")
}

func writePID(pid int) error {
	dir := resolveDataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0644)
}

func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePID() {
	os.Remove(pidFilePath())
}

func logFilePath() string {
	return filepath.Join(resolveDataDir(), "formgate.log")
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
