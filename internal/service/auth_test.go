package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/social-sync/internal/apperror"
	"github.com/sakif/social-sync/internal/auth"
	"github.com/sakif/social-sync/internal/logging"
	"github.com/sakif/social-sync/internal/model"
)

// =========================================================================
// REGISTER
// =========================================================================

func TestRegister_CreatesUserWithHashedPassword(t *testing.T) {
	env := newTestEnv(t)

	u, err := env.auth.Register(context.Background(), RegisterInput{
		Username: "  alice  ",
		Email:    " alice@example.com ",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	assert.NotZero(t, u.ID)
	assert.Equal(t, "alice", u.Username, "username is trimmed")
	assert.Equal(t, "alice@example.com", u.Email, "email is trimmed")
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret-pass")))
}

func TestRegister_CreatesDefaultConnections(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "alice")

	conns, err := env.db.Connections().ListByUser(context.Background(), u.ID)
	require.NoError(t, err)
	require.Len(t, conns, len(model.DefaultPlatforms))

	for _, c := range conns {
		assert.False(t, c.Connected)
		assert.Equal(t, model.ConnectionNotConnected, c.Status)
	}
}

func TestRegister_Duplicates(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	tests := []struct {
		name    string
		in      RegisterInput
		field   string
		message string
	}{
		{
			name:    "same username",
			in:      RegisterInput{Username: "alice", Email: "other@example.com", Password: "pw"},
			field:   "username",
			message: "Username already exists",
		},
		{
			name:    "same username different case",
			in:      RegisterInput{Username: "ALICE", Email: "other@example.com", Password: "pw"},
			field:   "username",
			message: "Username already exists",
		},
		{
			name:    "same email",
			in:      RegisterInput{Username: "bob", Email: "alice@example.com", Password: "pw"},
			field:   "email",
			message: "Email already in use",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.in)
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.field, appErr.Field)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"missing username", RegisterInput{Username: "  ", Email: "a@example.com", Password: "pw"}, "username"},
		{"long username", RegisterInput{Username: strings.Repeat("u", MaxUsernameLength+1), Email: "a@example.com", Password: "pw"}, "username"},
		{"missing email", RegisterInput{Username: "a", Password: "pw"}, "email"},
		{"bad email", RegisterInput{Username: "a", Email: "not-an-email", Password: "pw"}, "email"},
		{"named email", RegisterInput{Username: "a", Email: "A <a@example.com>", Password: "pw"}, "email"},
		{"missing password", RegisterInput{Username: "a", Email: "a@example.com"}, "password"},
		{"long password", RegisterInput{Username: "a", Email: "a@example.com", Password: strings.Repeat("p", 73)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.in)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr), "got %v", err)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestRegister_RepositoryFailureIsInternal(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAuthService(brokenUsers{env.db.Users()}, env.db.Platforms(), env.db.Connections(),
		auth.NewPasswordServiceForTest(bcrypt.MinCost), logging.Discard())

	_, err := svc.Register(context.Background(), RegisterInput{Username: "a", Email: "a@example.com", Password: "pw"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, apperror.ErrValidation)
}

// =========================================================================
// LOGIN
// =========================================================================

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "alice")

	t.Run("correct credentials", func(t *testing.T) {
		u, err := env.auth.Login(context.Background(), "alice", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, u.ID)
	})

	t.Run("username is case-insensitive", func(t *testing.T) {
		u, err := env.auth.Login(context.Background(), "Alice", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, u.ID)
	})

	failures := []struct {
		name, username, password string
	}{
		{"wrong password", "alice", "nope"},
		{"unknown user", "mallory", "password123"},
		{"empty password", "alice", ""},
		{"empty username", "", "password123"},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Login(context.Background(), tt.username, tt.password)
			require.ErrorIs(t, err, apperror.ErrUnauthorized)
			assert.Equal(t, invalidCredentials, err.Error(), "failures must be indistinguishable")
		})
	}
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)
	registered := env.register(t, "alice")

	u, err := env.auth.GetUser(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.View(), u.View())

	_, err = env.auth.GetUser(context.Background(), 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
