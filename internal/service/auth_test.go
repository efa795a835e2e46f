package service

import (
	"context"
	"testing"
	"time"

	"github.com/podloop/podloop/internal/repository"
	"github.com/stretchr/testify/require"
)

func newAuthService(env *testEnv) *AuthService {
	return NewAuthService(env.users, "test-secret", false, time.Hour)
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)
	ctx := context.Background()

	user, err := auth.Register(ctx, "  Alice_99 ", "", "s3cure-passphrase", "gardening and compost")
	require.NoError(t, err)
	if user.Username != "alice_99" {
		t.Errorf("username: got %q, want lowercased trimmed form", user.Username)
	}
	if user.DisplayName != "alice_99" {
		t.Errorf("display name should default to username, got %q", user.DisplayName)
	}
	if user.PasswordHash == "s3cure-passphrase" {
		t.Error("password stored in plain text")
	}

	got, err := auth.Login(ctx, "ALICE_99", "s3cure-passphrase")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = auth.Login(ctx, "alice_99", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody", "s3cure-passphrase")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)
	ctx := context.Background()

	_, err := auth.Register(ctx, "alice", "", "s3cure-passphrase", "")
	require.NoError(t, err)

	_, err = auth.Register(ctx, "ALICE", "", "another-passphrase", "")
	require.ErrorIs(t, err, repository.ErrDuplicateUsername)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "s3cure-passphrase"},
		{"bad characters", "alice!", "s3cure-passphrase"},
		{"short password", "alice", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tt.username, "", tt.password, "")
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestJWTRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuthService(env)

	user, err := auth.Register(context.Background(), "alice", "", "s3cure-passphrase", "")
	require.NoError(t, err)

	token, err := auth.GenerateJWT(user)
	require.NoError(t, err)

	claims, err := auth.VerifyJWT(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims["user_id"])

	other := NewAuthService(env.users, "different-secret", false, time.Hour)
	_, err = other.VerifyJWT(token)
	require.Error(t, err)
}

func TestUpdateBio(t *testing.T) {
	env := newTestEnv(t)
	userService := NewUserService(env.users)
	ctx := context.Background()

	user := env.createUser(t, "alice", "old bio")

	err := userService.UpdateBio(ctx, user.ID, "new bio about pottery")
	require.NoError(t, err)

	got, err := userService.ByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "new bio about pottery", got.Bio)

	err = userService.UpdateBio(ctx, "missing", "bio")
	require.ErrorIs(t, err, repository.ErrUserNotFound)
}
