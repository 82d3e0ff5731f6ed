package postgres

import (
	"context"
	"fmt"
	"time"

	"chillerdash/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL at url and applies the schema
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migration.NewRunner(migration.DialectPostgres).Run(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
