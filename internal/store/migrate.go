package store

import (
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/blueprinthub/gateway/migrations"
)

// Migrate runs all pending goose migrations against the store.
func (s *Store) Migrate() error {
	goose.SetBaseFS(migrations.FS)

	dialect := "sqlite3"
	if s.driver == "postgres" {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(s.db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
