package core

import (
	"time"

	"github.com/google/uuid"
)

const (
	Unauthenticated AuthState = "unauthenticated"
	Authenticating  AuthState = "authenticating"
	Authenticated   AuthState = "authenticated"
)

type (
	// AuthState is the in-memory authentication status of the session.
	AuthState string

	// User is a registered account. PasswordHash is a bcrypt hash, never the
	// plaintext password.
	User struct {
		ID           string
		Username     string
		Email        string
		PasswordHash string
		IsActive     bool
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// LoginRequest carries the credentials of a login attempt. Identifier is
	// either a username or an email address.
	LoginRequest struct {
		Identifier string
		Password   string
	}

	// RegisterRequest carries the fields of a registration attempt.
	RegisterRequest struct {
		Username        string
		Email           string
		Password        string
		ConfirmPassword string
	}
)

// NewUser builds an active user with a fresh id and current timestamps.
func NewUser(username, email, passwordHash string) User {
	now := time.Now()
	return User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
