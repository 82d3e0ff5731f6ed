package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"chillerdash/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	driver := strings.ToLower(os.Getenv("DATABASE_DRIVER"))
	if len(os.Args) > 1 {
		databaseURL = os.Args[1]
	}
	if len(os.Args) > 2 {
		driver = strings.ToLower(os.Args[2])
	}
	if databaseURL == "" {
		log.Fatal("Usage: migrate <database_url> [sqlite|postgres] (or set DATABASE_URL and DATABASE_DRIVER)")
	}
	if driver == "" {
		driver = guessDriver(databaseURL)
	}

	var dialect migration.Dialect
	switch driver {
	case "postgres", "postgresql":
		driver, dialect = "postgres", migration.DialectPostgres
	case "sqlite":
		dialect = migration.DialectSQLite
	default:
		log.Fatalf("Unsupported driver %q", driver)
	}

	log.Printf("Applying schema to %s database", driver)

	db, err := sqlx.Connect(driver, databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	runner := migration.NewRunner(dialect)
	if err := runner.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Printf("Schema version %s applied", runner.Version())
}

func guessDriver(url string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return "postgres"
	}
	return "sqlite"
}
