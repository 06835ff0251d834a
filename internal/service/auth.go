package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/sakif/social-sync/internal/apperror"
	"github.com/sakif/social-sync/internal/auth"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/repository"
)

// Field limits for registration.
const (
	MaxUsernameLength = 50
	MaxEmailLength    = 254
)

// invalidCredentials is the one message for both an unknown username and a
// wrong password, so the response does not reveal which usernames exist.
const invalidCredentials = "Invalid username or password"

// AuthService registers users and checks their credentials.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ PasswordService (bcrypt)
//
// Sessions and cookies are an HTTP concern and live in auth.Manager; this
// service only answers "who is this?".
type AuthService struct {
	users       repository.UserRepository
	platforms   repository.PlatformRepository
	connections repository.ConnectionRepository
	passwords   *auth.PasswordService
	logger      *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	platforms repository.PlatformRepository,
	connections repository.ConnectionRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:       users,
		platforms:   platforms,
		connections: connections,
		passwords:   passwords,
		logger:      logger,
	}
}

// RegisterInput is the body of POST /api/auth/register.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a user with a bcrypt-hashed password, plus one
// not_connected connection per catalog platform.
//
// Username and email are trimmed; the password is taken as-is.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := validateRegistration(in); err != nil {
		return nil, err
	}

	// Duplicate checks first so the common case gets a precise message.
	// The UNIQUE columns still catch a concurrent registration that slips past.
	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, apperror.ValidationFailed("username", "Username already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking username: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperror.ValidationFailed("email", "Email already in use")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", "Password must be 72 bytes or fewer")
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{Username: in.Username, Email: in.Email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	if err := s.createDefaultConnections(ctx, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.Int64("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

func (s *AuthService) createDefaultConnections(ctx context.Context, userID int64) error {
	platforms, err := s.platforms.List(ctx)
	if err != nil {
		return fmt.Errorf("service/auth: listing platforms: %w", err)
	}

	for _, p := range platforms {
		conn := &model.PlatformConnection{
			UserID:     userID,
			PlatformID: p.ID,
			Status:     model.ConnectionNotConnected,
		}
		if err := s.connections.Create(ctx, conn); err != nil {
			return fmt.Errorf("service/auth: creating %s connection for user %d: %w", p.Code, userID, err)
		}
	}
	return nil
}

// Login returns the user whose credentials match.
// Any mismatch is reported as apperror.ErrUnauthorized with the same message.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.logger.Info("login failed", slog.String("reason", "unknown user"))
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login failed", slog.String("reason", "wrong password"), slog.Int64("userID", user.ID))
			return nil, apperror.Unauthorized(invalidCredentials)
		}
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return user, nil
}

// GetUser returns the user with the given ID.
func (s *AuthService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", id, err)
	}
	return user, nil
}

func validateRegistration(in RegisterInput) error {
	switch {
	case in.Username == "":
		return apperror.ValidationFailed("username", "Username is required")
	case len(in.Username) > MaxUsernameLength:
		return apperror.ValidationFailed("username",
			fmt.Sprintf("Username must be %d characters or fewer", MaxUsernameLength))
	case in.Email == "":
		return apperror.ValidationFailed("email", "Email is required")
	case len(in.Email) > MaxEmailLength:
		return apperror.ValidationFailed("email", "Email is too long")
	case in.Password == "":
		return apperror.ValidationFailed("password", "Password is required")
	case len(in.Password) > auth.MaxPasswordBytes:
		return apperror.ValidationFailed("password", "Password must be 72 bytes or fewer")
	}

	// ParseAddress also accepts `Name <addr>`; only a bare address is allowed.
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return apperror.ValidationFailed("email", "Email is not a valid address")
	}
	return nil
}
