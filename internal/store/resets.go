package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateResetToken records a single-use password reset token for the user.
func (s *Store) CreateResetToken(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	now := time.Now()
	_, err := s.execContext(ctx, `
		INSERT INTO password_resets(token, user_id, created_at, expires_at)
		VALUES(?, ?, ?, ?)`,
		token, userID, now.Unix(), now.Add(ttl).Unix())
	if err != nil {
		return "", fmt.Errorf("insert reset token: %w", err)
	}
	return token, nil
}

// UserByResetToken resolves an unexpired, unused token belonging to userID.
// Anything else returns ErrNotFound: invalid links all look the same to the
// visitor.
func (s *Store) UserByResetToken(ctx context.Context, userID int64, token string) (*User, error) {
	var ownerID int64
	err := s.queryRowContext(ctx, `
		SELECT user_id FROM password_resets
		WHERE token = ? AND user_id = ? AND used_at IS NULL AND expires_at > ?`,
		token, userID, time.Now().Unix()).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reset token user: %w", err)
	}
	return s.UserByID(ctx, ownerID)
}

// ResetPassword sets the user's password and marks the token used in one
// transaction. A token that is already used returns ErrNotFound and leaves
// the password unchanged.
func (s *Store) ResetPassword(ctx context.Context, userID int64, token, passwordHash string) error {
	tx, start, err := s.beginTx(ctx, "reset password")
	if err != nil {
		return err
	}
	defer s.rollbackTx(tx, "reset password", start)

	res, err := tx.ExecContext(ctx,
		"UPDATE password_resets SET used_at = ? WHERE token = ? AND user_id = ? AND used_at IS NULL",
		time.Now().Unix(), token, userID)
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	res, err = tx.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, userID)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return s.commitTx(tx, "reset password", start)
}
