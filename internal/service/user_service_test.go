package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expense-tracker/internal/domain"
	"expense-tracker/internal/repository"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.hasher)
	ctx := context.Background()

	user, err := svc.Register(ctx, " alice ", "alice@example.com", "secret1")
	require.NoError(t, err)
	assert.Positive(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash, "hash must not leave the service")

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, f.hasher.Verify("secret1", stored.PasswordHash))

	logged, err := svc.Authenticate(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.Equal(t, "alice@example.com", logged.Email)
	assert.Empty(t, logged.PasswordHash)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.hasher)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "different@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	_, err = svc.Register(ctx, "bob", "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	exists, err := f.users.ExistsByUsernameOrEmail(ctx, "bob", "different@example.com")
	require.NoError(t, err)
	assert.False(t, exists, "rejected registrations must not create rows")
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.hasher)

	cases := []struct {
		name, username, email, password, msg string
	}{
		{"missing username", "", "a@example.com", "secret1", "Username, email and password are required"},
		{"missing email", "alice", " ", "secret1", "Username, email and password are required"},
		{"missing password", "alice", "a@example.com", "", "Username, email and password are required"},
		{"short password", "alice", "a@example.com", "12345", "Password must be at least 6 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.username, tc.email, tc.password)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.msg, verr.Message)
		})
	}
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.users, f.hasher)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	_, wrongPassword := svc.Authenticate(ctx, "alice", "wrong-password")
	_, unknownUser := svc.Authenticate(ctx, "mallory", "secret1")
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())

	_, err = svc.Authenticate(ctx, "", "secret1")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

// racingUsers passes the existence check but loses the insert to a concurrent registration.
type racingUsers struct {
	repository.UserRepository
}

func (racingUsers) ExistsByUsernameOrEmail(context.Context, string, string) (bool, error) {
	return false, nil
}

func (racingUsers) Create(context.Context, *domain.User) (int64, error) {
	return 0, fmt.Errorf("insert user: %w", repository.ErrDuplicate)
}

func TestRegisterMapsConstraintViolation(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(racingUsers{UserRepository: f.users}, f.hasher)

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret1")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}
