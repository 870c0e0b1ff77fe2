package store

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// sqlite returns SQLITE_BUSY under write contention; a single short retry
// absorbs the common case without hiding real lock problems.

func (s *Store) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	slog.Debug("sql exec", "query", query, "args", args)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err == nil || !isSQLiteBusy(err) {
			return res, err
		}
		if attempt >= 1 || s.lockTimeout <= 0 || time.Since(start) >= s.lockTimeout {
			slog.Debug("sql exec busy", "query", query, "attempts", attempt+1, "err", err)
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	slog.Debug("sql query", "query", query, "args", args)
	start := time.Now()
	for attempt := 0; ; attempt++ {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err == nil || !isSQLiteBusy(err) {
			return rows, err
		}
		if attempt >= 1 || s.lockTimeout <= 0 || time.Since(start) >= s.lockTimeout {
			slog.Debug("sql query busy", "query", query, "attempts", attempt+1, "err", err)
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) queryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	slog.Debug("sql query row", "query", query, "args", args)
	return s.db.QueryRowContext(ctx, query, args...)
}

func retryDelay(attempt int) time.Duration {
	delay := time.Duration(attempt+1) * 40 * time.Millisecond
	if delay > 300*time.Millisecond {
		delay = 300 * time.Millisecond
	}
	return delay
}

func (s *Store) beginTx(ctx context.Context, name string) (*sql.Tx, time.Time, error) {
	start := time.Now()
	slog.Debug("sql tx begin", "op", name)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("sql tx begin failed", "op", name, "err", err)
		return nil, start, err
	}
	return tx, start, nil
}

func (s *Store) commitTx(tx *sql.Tx, name string, start time.Time) error {
	if tx == nil {
		return sql.ErrTxDone
	}
	err := tx.Commit()
	slog.Debug("sql tx commit", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
	return err
}

func (s *Store) rollbackTx(tx *sql.Tx, name string, start time.Time) {
	if tx == nil {
		return
	}
	err := tx.Rollback()
	if err != nil && err != sql.ErrTxDone {
		slog.Warn("sql tx rollback failed", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
		return
	}
	slog.Debug("sql tx rollback", "op", name, "duration_ms", time.Since(start).Milliseconds())
}
