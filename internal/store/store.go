// Package store is the gateway's project store: projects, share tokens
// and artifacts behind database/sql, with an optional redis cache for
// access decisions and a minio bucket for artifact source images.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/blueprinthub/gateway/internal/config"
)

type Store struct {
	db     *sql.DB
	driver string
}

// Open returns a Store backed by the configured driver.
func Open(cfg *config.Config) (*Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		db, err := openSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return &Store{db: db, driver: "sqlite"}, nil
	case "postgres":
		db, err := openPostgres(cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		return &Store{db: db, driver: "postgres"}, nil
	default:
		return nil, fmt.Errorf("unsupported db driver: %s", cfg.DBDriver)
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func openSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite single-writer: cap pool
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("BPH_DATABASE_URL is required for postgres driver")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
