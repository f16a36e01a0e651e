package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/99zwgp/AccountBook/internal/core"
)

const userColumns = `id, username, email, password_hash, is_active, created_at, updated_at`

// InsertUser stores a new user. Violating the unique username or email
// constraint surfaces as a wrapped driver error; callers check uniqueness
// up front for friendlier messages.
func (s *Store) InsertUser(ctx context.Context, u core.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Username, u.Email, u.PasswordHash, boolToInt(u.IsActive),
		u.CreatedAt.UnixMilli(), u.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID fetches a user by id; a missing user is (nil, nil).
func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.getUser(ctx, query, id)
}

// GetUserByIdentifier fetches a user whose username or email equals
// identifier; a missing user is (nil, nil).
func (s *Store) GetUserByIdentifier(ctx context.Context, identifier string) (*core.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? OR email = ?`
	return s.getUser(ctx, query, identifier, identifier)
}

// UsernameExists reports whether any user holds username.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username)
}

// EmailExists reports whether any user holds email.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email)
}

// SetUserActive flips the active flag and bumps updated_at.
func (s *Store) SetUserActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`
	_, err := s.db.ExecContext(ctx, query, boolToInt(active), time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	return nil
}

// DeleteUser removes a user row. Records owned by the user are untouched;
// callers that want a full wipe pair this with DeleteRecordsByUser.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *Store) getUser(ctx context.Context, query string, args ...any) (*core.User, error) {
	var (
		u         core.User
		isActive  int
		createdAt int64
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &isActive, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.IsActive = isActive != 0
	u.CreatedAt = time.UnixMilli(createdAt)
	u.UpdatedAt = time.UnixMilli(updatedAt)
	return &u, nil
}

func (s *Store) exists(ctx context.Context, query string, arg string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&n); err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
