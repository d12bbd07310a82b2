package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shokujin-wiki/shokujin-api/internal/users"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/dbtest"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
)

func newSignupService(t *testing.T) (Service, *stubSessionManager, func() (int64, int64)) {
	t.Helper()
	client, conn := dbtest.Client(t)
	userSvc, err := users.NewService(users.NewRepository(conn))
	require.NoError(t, err)
	sessions := newStubSessionManager()
	svc, err := NewService(ServiceParams{
		DB:             client,
		Identities:     NewIdentityRepository(conn),
		Users:          userSvc,
		SessionManager: sessions,
		JWTConfig:      testJWTCfg,
		PasswordConfig: testPasswordCfg,
	})
	require.NoError(t, err)

	counts := func() (int64, int64) {
		var identities, rows int64
		require.NoError(t, conn.Model(&models.AuthIdentity{}).Count(&identities).Error)
		require.NoError(t, conn.Model(&models.User{}).Count(&rows).Error)
		return identities, rows
	}
	return svc, sessions, counts
}

func TestSignupCreatesIdentityAndUser(t *testing.T) {
	svc, sessions, counts := newSignupService(t)

	resp, err := svc.Signup(context.Background(), SignupRequest{
		Email:           "Taro@Example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Len(t, sessions.generated, 1)

	identities, rows := counts()
	assert.EqualValues(t, 1, identities)
	assert.EqualValues(t, 1, rows)

	login, err := svc.Login(context.Background(), LoginRequest{Email: "taro@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	svc, _, counts := newSignupService(t)
	req := SignupRequest{Email: "taro@example.com", Password: "secret1", ConfirmPassword: "secret1"}

	_, err := svc.Signup(context.Background(), req)
	require.NoError(t, err)

	req.Email = "TARO@example.com"
	_, err = svc.Signup(context.Background(), req)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, msgEmailTaken, typed.Message())

	identities, rows := counts()
	assert.EqualValues(t, 1, identities)
	assert.EqualValues(t, 1, rows)
}

func TestSignupValidation(t *testing.T) {
	svc, _, counts := newSignupService(t)

	_, err := svc.Signup(context.Background(), SignupRequest{
		Email:           "not-an-email",
		Password:        "12345",
		ConfirmPassword: "54321",
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{
		"email":           msgEmailInvalid,
		"password":        msgPasswordTooShort,
		"confirmPassword": msgPasswordMismatch,
	}, typed.FieldErrors())

	identities, rows := counts()
	assert.Zero(t, identities)
	assert.Zero(t, rows)
}
