package usecase

import (
	"context"
	"testing"

	"parking-reservation/internal/dto/request"
	"parking-reservation/pkg/apperrors"
	"parking-reservation/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthService(f *fixture) AuthService {
	config := &utils.Config{
		Session: utils.SessionConfig{ExpiryHours: 24},
	}
	return NewAuthService(f.repo, config, zap.NewNop())
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f)

	user, err := svc.Register(context.Background(), &request.RegisterRequest{
		Username: "budi",
		Email:    "budi@example.com",
		Password: "rahasia-banget",
	})
	require.NoError(t, err)
	assert.Equal(t, "budi", user.Username)
	assert.Equal(t, "customer", user.Role)
	assert.Empty(t, user.Token)

	auth, err := svc.Login(context.Background(), &request.LoginRequest{
		Username: "budi",
		Password: "rahasia-banget",
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, auth.Token)
	require.NotNil(t, auth.ExpiresAt)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f)

	_, err := svc.Register(context.Background(), &request.RegisterRequest{
		Username: "budi",
		Email:    "budi@example.com",
		Password: "rahasia-banget",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), &request.RegisterRequest{
		Username: "budi2",
		Email:    "budi@example.com",
		Password: "rahasia-banget",
	})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestRegisterShortPassword(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f)

	_, err := svc.Register(context.Background(), &request.RegisterRequest{
		Username: "budi",
		Email:    "budi@example.com",
		Password: "pendek",
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f)

	_, err := svc.Register(context.Background(), &request.RegisterRequest{
		Username: "budi",
		Email:    "budi@example.com",
		Password: "rahasia-banget",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &request.LoginRequest{
		Username: "budi",
		Password: "salah-semua",
	}, "", "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLoginUnknownUser(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f)

	_, err := svc.Login(context.Background(), &request.LoginRequest{
		Username: "siapa",
		Password: "apa-saja",
	}, "", "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture()
	svc := newAuthService(f)

	_, err := svc.Register(context.Background(), &request.RegisterRequest{
		Username: "budi",
		Email:    "budi@example.com",
		Password: "rahasia-banget",
	})
	require.NoError(t, err)

	auth, err := svc.Login(context.Background(), &request.LoginRequest{
		Username: "budi",
		Password: "rahasia-banget",
	}, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), auth.Token))

	session, err := f.repo.Session.FindValidSession(context.Background(), auth.Token)
	require.NoError(t, err)
	assert.Nil(t, session)

	// Logout kedua dengan token yang sama ditolak
	assert.ErrorIs(t, svc.Logout(context.Background(), auth.Token), apperrors.ErrUnauthorized)
}
