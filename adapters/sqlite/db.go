// Package sqlite stores uploads and column mappings in an embedded SQLite database.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chillerdash/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Open connects to the database at dsn, creating its directory when needed,
// and applies the schema. The connection pool is limited to a single
// connection since SQLite serializes writers.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	dsn = withDefaults(strings.TrimSpace(dsn))
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn required")
	}
	if dir := filepath.Dir(dbPath(dsn)); dir != "." && dir != "" && !strings.Contains(dsn, ":memory:") {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migration.NewRunner(migration.DialectSQLite).Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// withDefaults turns on foreign keys and sqlite time formatting unless the dsn sets them
func withDefaults(dsn string) string {
	if dsn == "" {
		return dsn
	}
	var params []string
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "_time_format") {
		params = append(params, "_time_format=sqlite")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// dbPath strips the file: prefix and query string from a dsn
func dbPath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	return path
}
