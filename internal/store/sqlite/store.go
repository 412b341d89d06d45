// internal/store/sqlite/store.go
package sqlite

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/eavinstitute/admissions/internal/store"
)

type SQLiteStore struct {
	store.BaseStore
}

func NewSQLiteStore(dsn, migrationsDir string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			return query
		},
	}}

	if migrationsDir != "" {
		if err := s.ApplyMigrations(migrationsDir); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	return s, nil
}

func (s *SQLiteStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, translateToSQLite)
}

// sqliteDialect rewrites Postgres SQL into SQLite dialect. A Replacer
// matches leftmost-longest, so BIGSERIAL always wins over the shorter
// SERIAL and BIGINT patterns it contains.
var sqliteDialect = strings.NewReplacer(
	"BIGSERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT",
	"SERIAL PRIMARY KEY", "INTEGER PRIMARY KEY AUTOINCREMENT",
	"BIGINT", "INTEGER",
	"TIMESTAMPTZ", "TIMESTAMP",
	"NUMERIC(12,2)", "REAL",
	"TRUE", "1",
	"FALSE", "0",
	"now()", "CURRENT_TIMESTAMP",
)

func translateToSQLite(sql string) string {
	return sqliteDialect.Replace(sql)
}

// NextCounterValue mirrors the Postgres implementation; SQLite spells the
// two-argument maximum MAX instead of GREATEST.
func (s *SQLiteStore) NextCounterValue(prefix string, floor int) (int, error) {
	var next int
	err := s.DB.Get(&next, `
		INSERT INTO admission_counters (prefix, current_number, last_updated)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (prefix) DO UPDATE SET
			current_number = MAX(admission_counters.current_number + 1, excluded.current_number),
			last_updated = CURRENT_TIMESTAMP
		RETURNING current_number
	`, prefix, floor)
	if err != nil {
		return 0, fmt.Errorf("failed to advance counter %s: %w", prefix, err)
	}
	return next, nil
}

func (s *SQLiteStore) SetCounter(prefix string, value int) error {
	_, err := s.DB.Exec(`
		INSERT INTO admission_counters (prefix, current_number, last_updated)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (prefix) DO UPDATE SET
			current_number = excluded.current_number,
			last_updated = CURRENT_TIMESTAMP
	`, prefix, value)
	if err != nil {
		return fmt.Errorf("failed to set counter %s: %w", prefix, err)
	}
	return nil
}
