package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogulcanaydogan/balchk/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements StateStore on an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) LoadState(ctx context.Context) (*model.CheckState, error) {
	var (
		value  string
		millis int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT last_value, last_checked_at FROM check_state WHERE id = 1`,
	).Scan(&value, &millis)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load check state: %w", err)
	}

	v, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("decode last value %q: %w", value, err)
	}
	return &model.CheckState{
		LastValue:     v,
		LastCheckedAt: time.UnixMilli(millis).UTC(),
	}, nil
}

func (s *SQLite) SaveState(ctx context.Context, state model.CheckState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO check_state (id, last_value, last_checked_at, updated_at)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   last_value = excluded.last_value,
		   last_checked_at = excluded.last_checked_at,
		   updated_at = excluded.updated_at`,
		state.LastValue.String(), state.LastCheckedAt.UnixMilli(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save check state: %w", err)
	}
	return nil
}

func (s *SQLite) ResetState(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM check_state`); err != nil {
		return fmt.Errorf("reset check state: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
