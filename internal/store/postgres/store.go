package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/eavinstitute/admissions/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn, migrationsDir string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB: db,
		Converter: func(query string) string {
			out := query
			for i := 1; strings.Contains(out, "?"); i++ {
				out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
			}
			return out
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

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

// NextCounterValue bumps the admission counter for prefix in one atomic
// statement and returns the issued value. The GREATEST clause keeps the
// counter from ever dropping below floor (highest issued suffix + 1, or
// the configured starting number), so concurrent creators cannot observe
// a lost update.
func (s *PostgresStore) NextCounterValue(prefix string, floor int) (int, error) {
	var next int
	err := s.DB.Get(&next, `
		INSERT INTO admission_counters (prefix, current_number, last_updated)
		VALUES ($1, $2, now())
		ON CONFLICT (prefix) DO UPDATE SET
			current_number = GREATEST(admission_counters.current_number + 1, EXCLUDED.current_number),
			last_updated = now()
		RETURNING current_number
	`, prefix, floor)
	if err != nil {
		return 0, fmt.Errorf("failed to advance counter %s: %w", prefix, err)
	}
	return next, nil
}

func (s *PostgresStore) SetCounter(prefix string, value int) error {
	_, err := s.DB.Exec(`
		INSERT INTO admission_counters (prefix, current_number, last_updated)
		VALUES ($1, $2, now())
		ON CONFLICT (prefix) DO UPDATE SET
			current_number = EXCLUDED.current_number,
			last_updated = now()
	`, prefix, value)
	if err != nil {
		return fmt.Errorf("failed to set counter %s: %w", prefix, err)
	}
	return nil
}
