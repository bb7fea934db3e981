// Package db opens the collector's SQLite database.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"cloudpico-node/internal/config"
)

const driverName = "sqlite3"

// Open connects and pings. Writes are serialised through one connection,
// which is all a single-node collector needs. Statements are logged when
// logger has debug enabled.
func Open(ctx context.Context, cfg config.CollectorConfig, logger *slog.Logger) (*sql.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	var conn *sql.DB
	if logger != nil && logger.Enabled(ctx, slog.LevelDebug) {
		conn = sql.OpenDB(newTraceConnector(dsn, logger))
	} else if conn, err = sql.Open(driverName, dsn); err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return conn, nil
}

// DSN returns SQLITE_DSN verbatim or builds a file DSN for SQLITE_PATH,
// creating its directory.
func DSN(cfg config.CollectorConfig) (string, error) {
	if cfg.SQLiteDSN != "" {
		return cfg.SQLiteDSN, nil
	}

	path := strings.TrimPrefix(cfg.SQLitePath, "file:")
	if q := strings.IndexByte(path, '?'); q >= 0 {
		path = path[:q]
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	params := "_busy_timeout=5000&_journal_mode=WAL"
	if strings.HasPrefix(cfg.SQLitePath, "file:") {
		sep := "?"
		if strings.Contains(cfg.SQLitePath, "?") {
			sep = "&"
		}
		return cfg.SQLitePath + sep + params, nil
	}
	return "file:" + cfg.SQLitePath + "?" + params, nil
}
