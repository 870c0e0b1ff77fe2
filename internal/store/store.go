package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("store: not found")

type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	return &Store{db: db, lockTimeout: 5 * time.Second}, nil
}

// OpenDB wraps an existing handle; used by tests that drive sqlmock.
func OpenDB(db *sql.DB) *Store {
	return &Store{db: db, lockTimeout: 5 * time.Second}
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SetLockTimeout(d time.Duration) {
	s.lockTimeout = d
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}
	version, err := s.currentSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != schemaVersion {
		if err := s.setSchemaVersion(ctx, schemaVersion); err != nil {
			return err
		}
	}
	return s.seedReferenceRows(ctx)
}

func (s *Store) currentSchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, v int) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", v)
	return err
}

func (s *Store) seedReferenceRows(ctx context.Context) error {
	for _, name := range seedStatuses {
		if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO statuses(name) VALUES(?)", name); err != nil {
			return err
		}
	}
	for _, name := range seedCategories {
		if _, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO categories(name) VALUES(?)", name); err != nil {
			return err
		}
	}
	return nil
}

func isSQLiteBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}
