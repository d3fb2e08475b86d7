package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimbusdrive/errtypes"
)

func newAuthEnv() (*env, *AuthService) {
	e := newEnv()
	auth := NewAuthService(e.store, "test-secret", "nimbusdrive-test", time.Hour, 1024)
	return e, auth
}

func TestSignupAndLogin(t *testing.T) {
	_, auth := newAuthEnv()

	user, token, err := auth.Signup(context.Background(), "Alice@Example.com", "Alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email, "emails are stored lowercased")
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(1024), user.MaxStorage)

	logged, token, err := auth.Login(context.Background(), "alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)
}

func TestSignupDuplicateEmail(t *testing.T) {
	_, auth := newAuthEnv()

	_, _, err := auth.Signup(context.Background(), "alice@example.com", "Alice", "correct-horse")
	require.NoError(t, err)

	_, _, err = auth.Signup(context.Background(), "ALICE@example.com", "Imposter", "other-password")
	assert.True(t, errtypes.IsConflict(err))
}

func TestLoginWrongPassword(t *testing.T) {
	_, auth := newAuthEnv()

	_, _, err := auth.Signup(context.Background(), "alice@example.com", "Alice", "correct-horse")
	require.NoError(t, err)

	_, _, err = auth.Login(context.Background(), "alice@example.com", "wrong")
	assert.True(t, errtypes.IsPermissionDenied(err))

	_, _, err = auth.Login(context.Background(), "nobody@example.com", "whatever")
	assert.True(t, errtypes.IsPermissionDenied(err), "unknown email and wrong password look the same")
}

func TestSignupValidation(t *testing.T) {
	_, auth := newAuthEnv()

	_, _, err := auth.Signup(context.Background(), "not-an-email", "X", "correct-horse")
	assert.True(t, errtypes.IsInvalidOperation(err))

	_, _, err = auth.Signup(context.Background(), "short@example.com", "X", "tiny")
	assert.True(t, errtypes.IsInvalidOperation(err))
}
