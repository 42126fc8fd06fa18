// Command seed inserts the default risk rules into the database.
//
// Seeding is idempotent: a rule is skipped when one already exists for the
// same condition field and operator, so re-running never duplicates rules or
// overwrites operator edits.
//
// Usage:
//
//	DATABASE_URL=postgres://... go run ./cmd/seed
package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/mbd888/trustlens/internal/scoring"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	store := scoring.NewPostgresStore(db)
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate scoring tables: %v", err)
	}

	created, err := scoring.SeedDefaultRules(ctx, store)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	total := len(scoring.DefaultRules())
	log.Printf("Done. %d new rule(s) created, %d already existed.", created, total-created)
}
