package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/99zwgp/AccountBook/internal/auth"
	"github.com/99zwgp/AccountBook/internal/core"
	"github.com/99zwgp/AccountBook/internal/log"
	"github.com/99zwgp/AccountBook/internal/stream"
)

// MinPasswordLen is the minimum accepted password length at registration.
const MinPasswordLen = 6

var (
	ErrEmptyCredentials = errors.New("username/email and password must not be empty")
	ErrUserNotFound     = errors.New("user does not exist")
	ErrWrongPassword    = errors.New("password is incorrect")
	ErrUserDisabled     = errors.New("user account is disabled")
	ErrEmptyFields      = errors.New("all fields are required")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrUsernameTaken    = errors.New("username already exists")
	ErrEmailTaken       = errors.New("email is already registered")
	ErrInvalidEmail     = errors.New("email format is invalid")
	ErrAuthUnavailable  = errors.New("authentication is temporarily unavailable")
)

// UserStore is the slice of the persistence layer the auth repository
// depends on.
type UserStore interface {
	InsertUser(ctx context.Context, u core.User) error
	GetUserByIdentifier(ctx context.Context, identifier string) (*core.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// AuthRepository validates credentials against the user table and holds the
// in-memory authentication state. Nothing survives a process restart.
type AuthRepository struct {
	users       UserStore
	logger      *log.Logger
	currentUser *stream.Value[*core.User]
	state       *stream.Value[core.AuthState]
}

func NewAuthRepository(users UserStore, logger *log.Logger) *AuthRepository {
	return &AuthRepository{
		users:       users,
		logger:      logger.WithComponent(log.ComponentAuth),
		currentUser: stream.NewValue[*core.User](nil),
		state:       stream.NewValue(core.Unauthenticated),
	}
}

// AuthState exposes the observable authentication status.
func (a *AuthRepository) AuthState() *stream.Value[core.AuthState] {
	return a.state
}

// CurrentUser exposes the observable logged-in user; nil when logged out.
func (a *AuthRepository) CurrentUser() *stream.Value[*core.User] {
	return a.currentUser
}

// IsAuthenticated reports whether a user is currently logged in.
func (a *AuthRepository) IsAuthenticated() bool {
	return a.state.Get() == core.Authenticated && a.currentUser.Get() != nil
}

// Login checks the supplied credentials and, on success, records the user as
// the active session. Every failure leaves the state unauthenticated and
// returns a descriptive error.
func (a *AuthRepository) Login(ctx context.Context, req core.LoginRequest) (*core.User, error) {
	a.state.Set(core.Authenticating)

	user, err := a.login(ctx, req)
	if err != nil {
		a.state.Set(core.Unauthenticated)
		return nil, err
	}

	a.currentUser.Set(user)
	a.state.Set(core.Authenticated)
	a.logger.InfoContext(ctx, "login succeeded",
		log.FieldUserID, user.ID, log.FieldUsername, user.Username)
	return user, nil
}

func (a *AuthRepository) login(ctx context.Context, req core.LoginRequest) (*core.User, error) {
	if strings.TrimSpace(req.Identifier) == "" || strings.TrimSpace(req.Password) == "" {
		return nil, ErrEmptyCredentials
	}

	user, err := a.users.GetUserByIdentifier(ctx, req.Identifier)
	if err != nil {
		a.logger.ErrorContext(ctx, "user lookup failed", log.FieldError, err)
		return nil, ErrAuthUnavailable
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		return nil, ErrWrongPassword
	}
	if !user.IsActive {
		return nil, ErrUserDisabled
	}
	return user, nil
}

// Register validates the request, creates the user and logs it in. All
// validation happens before any row is written.
func (a *AuthRepository) Register(ctx context.Context, req core.RegisterRequest) (*core.User, error) {
	a.state.Set(core.Authenticating)

	user, err := a.register(ctx, req)
	if err != nil {
		a.state.Set(core.Unauthenticated)
		return nil, err
	}

	a.currentUser.Set(user)
	a.state.Set(core.Authenticated)
	a.logger.InfoContext(ctx, "registration succeeded",
		log.FieldUserID, user.ID, log.FieldUsername, user.Username)
	return user, nil
}

func (a *AuthRepository) register(ctx context.Context, req core.RegisterRequest) (*core.User, error) {
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Password) == "" {
		return nil, ErrEmptyFields
	}
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(req.Password) < MinPasswordLen {
		return nil, ErrPasswordTooShort
	}
	if !auth.ValidEmail(req.Email) {
		return nil, ErrInvalidEmail
	}

	taken, err := a.users.UsernameExists(ctx, req.Username)
	if err != nil {
		a.logger.ErrorContext(ctx, "username check failed", log.FieldError, err)
		return nil, ErrAuthUnavailable
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	taken, err = a.users.EmailExists(ctx, req.Email)
	if err != nil {
		a.logger.ErrorContext(ctx, "email check failed", log.FieldError, err)
		return nil, ErrAuthUnavailable
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		a.logger.ErrorContext(ctx, "password hash failed", log.FieldError, err)
		return nil, ErrAuthUnavailable
	}

	user := core.NewUser(req.Username, req.Email, hash)
	if err := a.users.InsertUser(ctx, user); err != nil {
		a.logger.ErrorContext(ctx, "insert user failed", log.FieldError, err)
		return nil, ErrAuthUnavailable
	}
	return &user, nil
}

// Logout drops the active session.
func (a *AuthRepository) Logout(ctx context.Context) {
	user := a.currentUser.Get()
	a.currentUser.Set(nil)
	a.state.Set(core.Unauthenticated)
	if user != nil {
		a.logger.InfoContext(ctx, "logout", log.FieldUserID, user.ID)
	}
}
