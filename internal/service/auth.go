package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/dukerupert/scribble/internal/auth"
	"github.com/dukerupert/scribble/internal/model"
	"github.com/dukerupert/scribble/internal/store"
)

const (
	minEmailLength    = 4
	minNameLength     = 2
	minPasswordLength = 7
)

// ErrNoSession is returned by Logout when called for an anonymous caller.
var ErrNoSession = errors.New("no active session")

type RegisterInput struct {
	Email           string
	FirstName       string
	Password        string
	PasswordConfirm string
}

type AuthService struct {
	users      UserRepository
	sessions   SessionRepository
	iterations int
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewAuthService(users UserRepository, sessions SessionRepository, iterations int, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		iterations: iterations,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Register validates in, creates the user and logs them in. Validation stops
// at the first failing rule. Lengths are counted in characters.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.Session, *model.User, error) {
	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("register lookup: %w", err)
	}
	switch {
	case existing != nil:
		return nil, nil, ErrEmailExists
	case utf8.RuneCountInString(in.Email) < minEmailLength:
		return nil, nil, ErrEmailTooShort
	case utf8.RuneCountInString(in.FirstName) < minNameLength:
		return nil, nil, ErrNameTooShort
	case in.Password != in.PasswordConfirm:
		return nil, nil, ErrPasswordMismatch
	case utf8.RuneCountInString(in.Password) < minPasswordLength:
		return nil, nil, ErrPasswordTooShort
	}

	hash, err := auth.HashPassword(in.Password, s.iterations)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, in.Email, in.FirstName, hash)
	if errors.Is(err, store.ErrDuplicateEmail) {
		// Lost a race with a concurrent sign-up for the same address.
		return nil, nil, ErrEmailExists
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	sess, err := s.sessions.Create(ctx, user.ID, true, s.sessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return sess, user, nil
}

// Login checks credentials and issues a remembered session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.Session, *model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("login lookup: %w", err)
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Info("login rejected", "user_id", user.ID, "reason", ErrInvalidPassword.Code)
		return nil, nil, ErrInvalidPassword
	}

	sess, err := s.sessions.Create(ctx, user.ID, true, s.sessionTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return sess, user, nil
}

// Logout invalidates the caller's session.
func (s *AuthService) Logout(ctx context.Context, id auth.Identity) error {
	if id.Anonymous() || id.SessionID == 0 {
		return ErrNoSession
	}
	if err := s.sessions.Delete(ctx, id.SessionID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info("user logged out", "user_id", id.UserID)
	return nil
}

// Resolve maps a session token to the identity it was issued for. Unknown
// and expired tokens resolve to the anonymous identity without error. It
// never writes.
func (s *AuthService) Resolve(ctx context.Context, token string) (auth.Identity, error) {
	if token == "" {
		return auth.Identity{}, nil
	}

	sess, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("resolve session: %w", err)
	}
	if sess == nil {
		return auth.Identity{}, nil
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("resolve user: %w", err)
	}
	if user == nil {
		return auth.Identity{}, nil
	}

	return auth.Identity{
		UserID:    user.ID,
		SessionID: sess.ID,
		FirstName: user.FirstName,
	}, nil
}
