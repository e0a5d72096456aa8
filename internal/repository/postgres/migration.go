package postgres

import (
	"database/sql"
	"embed"
	"fmt"
)

//go:embed migrations/schema.sql
var migrations embed.FS

// RunMigrations executes the embedded schema. Every statement is idempotent.
func RunMigrations(db *sql.DB) error {
	content, err := migrations.ReadFile("migrations/schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	if _, err := db.Exec(string(content)); err != nil {
		return fmt.Errorf("failed to execute schema.sql: %w", err)
	}
	return nil
}
