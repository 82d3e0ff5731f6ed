package migration

import (
	"context"
	"fmt"

	"chillerdash/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Dialect selects the SQL flavour of the schema
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
	dialect Dialect
}

// NewRunner creates a new migration runner for the given dialect
func NewRunner(dialect Dialect) *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
		dialect: dialect,
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

type step struct {
	name       string
	postgreSQL string
	sqlite     string
}

// Every statement is idempotent so Run can execute on each start
var steps = []step{
	{
		name: "create uploads table",
		postgreSQL: `
		CREATE TABLE IF NOT EXISTS uploads (
			id UUID PRIMARY KEY,
			original_filename VARCHAR(255) NOT NULL,
			stored_path TEXT,
			file_size BIGINT NOT NULL DEFAULT 0,
			mime_type VARCHAR(255) NOT NULL DEFAULT '',
			extension VARCHAR(16) NOT NULL DEFAULT '',
			record_count INTEGER NOT NULL DEFAULT 0,
			field_count INTEGER NOT NULL DEFAULT 0,
			numeric_field_count INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL DEFAULT 'processing',
			error_message TEXT,
			metadata JSONB,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		sqlite: `
		CREATE TABLE IF NOT EXISTS uploads (
			id TEXT PRIMARY KEY,
			original_filename TEXT NOT NULL,
			stored_path TEXT,
			file_size INTEGER NOT NULL DEFAULT 0,
			mime_type TEXT NOT NULL DEFAULT '',
			extension TEXT NOT NULL DEFAULT '',
			record_count INTEGER NOT NULL DEFAULT 0,
			field_count INTEGER NOT NULL DEFAULT 0,
			numeric_field_count INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'processing',
			error_message TEXT,
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	},
	{
		name: "create column_mappings table",
		postgreSQL: `
		CREATE TABLE IF NOT EXISTS column_mappings (
			id UUID PRIMARY KEY,
			upload_id UUID NOT NULL UNIQUE REFERENCES uploads(id) ON DELETE CASCADE,
			columns JSONB NOT NULL,
			tariff VARCHAR(255),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		sqlite: `
		CREATE TABLE IF NOT EXISTS column_mappings (
			id TEXT PRIMARY KEY,
			upload_id TEXT NOT NULL UNIQUE REFERENCES uploads(id) ON DELETE CASCADE,
			columns TEXT NOT NULL,
			tariff TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
	},
	{
		name:       "index uploads by created_at",
		postgreSQL: `CREATE INDEX IF NOT EXISTS idx_uploads_created_at ON uploads(created_at DESC)`,
		sqlite:     `CREATE INDEX IF NOT EXISTS idx_uploads_created_at ON uploads(created_at)`,
	},
	{
		name:       "index uploads by status",
		postgreSQL: `CREATE INDEX IF NOT EXISTS idx_uploads_status ON uploads(status)`,
		sqlite:     `CREATE INDEX IF NOT EXISTS idx_uploads_status ON uploads(status)`,
	},
}

// Run executes all database migrations in order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	for _, s := range steps {
		query, err := r.statement(s)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, query); err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to %s", s.name), err)
		}
	}
	return nil
}

func (r *MigrationRunner) statement(s step) (string, error) {
	switch r.dialect {
	case DialectPostgres:
		return s.postgreSQL, nil
	case DialectSQLite:
		return s.sqlite, nil
	default:
		return "", errors.ConfigInvalid(fmt.Sprintf("unsupported migration dialect %q", r.dialect))
	}
}
