package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string, staff bool) (int64, error) {
	res, err := s.execContext(ctx, `
		INSERT INTO users(username, email, password_hash, is_staff, created_at)
		VALUES(?, ?, ?, ?, ?)`,
		username, email, passwordHash, boolToInt(staff), time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	return s.userBy(ctx, "u.id = ?", id)
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	return s.userBy(ctx, "u.username = ?", username)
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.userBy(ctx, "u.email = ?", email)
}

// userBy loads one user with the optional profile in the same query. A
// missing profile row leaves Profile nil.
func (s *Store) userBy(ctx context.Context, where string, arg any) (*User, error) {
	var u User
	var staff int
	var createdUnix int64
	var displayName, bio sql.NullString
	err := s.queryRowContext(ctx, `
		SELECT u.id, u.username, u.email, u.is_staff, u.created_at, p.display_name, p.bio
		FROM users u
		LEFT JOIN user_profiles p ON p.user_id = u.id
		WHERE `+where, arg).
		Scan(&u.ID, &u.Username, &u.Email, &staff, &createdUnix, &displayName, &bio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	u.IsStaff = staff != 0
	u.CreatedAt = time.Unix(createdUnix, 0)
	if displayName.Valid || bio.Valid {
		u.Profile = &UserProfile{
			UserID:      u.ID,
			DisplayName: displayName.String,
			Bio:         bio.String,
		}
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.queryContext(ctx, `
		SELECT id, username, email, is_staff, created_at
		FROM users
		ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var staff int
		var createdUnix int64
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &staff, &createdUnix); err != nil {
			return nil, err
		}
		u.IsStaff = staff != 0
		u.CreatedAt = time.Unix(createdUnix, 0)
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) SetPassword(ctx context.Context, userID int64, passwordHash string) error {
	res, err := s.execContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, userID)
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetStaff(ctx context.Context, userID int64, staff bool) error {
	res, err := s.execContext(ctx, "UPDATE users SET is_staff = ? WHERE id = ?", boolToInt(staff), userID)
	if err != nil {
		return fmt.Errorf("set staff: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) PasswordHash(ctx context.Context, userID int64) (string, error) {
	var hash string
	err := s.queryRowContext(ctx, "SELECT password_hash FROM users WHERE id = ?", userID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("password hash: %w", err)
	}
	return hash, nil
}

func (s *Store) SaveProfile(ctx context.Context, userID int64, displayName, bio string) error {
	_, err := s.execContext(ctx, `
		INSERT INTO user_profiles(user_id, display_name, bio) VALUES(?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET display_name = excluded.display_name, bio = excluded.bio`,
		userID, displayName, bio)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
