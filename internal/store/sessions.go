package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateSession issues a fresh opaque session token for the user.
func (s *Store) CreateSession(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	now := time.Now()
	_, err := s.execContext(ctx, `
		INSERT INTO sessions(token, user_id, created_at, expires_at)
		VALUES(?, ?, ?, ?)`,
		token, userID, now.Unix(), now.Add(ttl).Unix())
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return token, nil
}

// UserBySession resolves a session token to its user. Expired or unknown
// tokens return ErrNotFound.
func (s *Store) UserBySession(ctx context.Context, token string) (*User, error) {
	var u User
	var staff int
	var createdUnix int64
	err := s.queryRowContext(ctx, `
		SELECT u.id, u.username, u.email, u.is_staff, u.created_at
		FROM sessions se
		JOIN users u ON u.id = se.user_id
		WHERE se.token = ? AND se.expires_at > ?`,
		token, time.Now().Unix()).
		Scan(&u.ID, &u.Username, &u.Email, &staff, &createdUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session user: %w", err)
	}
	u.IsStaff = staff != 0
	u.CreatedAt = time.Unix(createdUnix, 0)
	return &u, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.execContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.execContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
