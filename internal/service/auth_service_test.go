package service_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/coldemail-backend/internal/errors"
	"github.com/unclebandit/coldemail-backend/internal/security"
	"github.com/unclebandit/coldemail-backend/internal/service"
)

func newAuthService(t *testing.T) (*service.AuthService, *MockUserRepo) {
	t.Helper()
	tokens, err := security.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	users := NewMockUserRepo()
	return &service.AuthService{Users: users, Tokens: tokens, Box: security.NewSecretBox("test-secret")}, users
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, "  Jane@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", u.Email)
	assert.NotEqual(t, "hunter22", u.HashedPassword)

	res, err := svc.Login(ctx, "jane@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, u.ID, res.UserID)

	claims, err := svc.Tokens.Parse(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", claims.Subject)
	assert.Equal(t, u.ID, claims.UserID)
}

func TestSignup_Duplicate(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "jane@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "JANE@example.com", "pw")
	status, msg := appErrors.HTTPStatus(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email already registered", msg)
}

func TestSignup_PasswordTooLong(t *testing.T) {
	svc, users := newAuthService(t)

	_, err := svc.Signup(context.Background(), "long@example.com", strings.Repeat("a", 80))
	status, msg := appErrors.HTTPStatus(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Password must be at most 72 bytes", msg)

	u, _ := users.GetByEmail(context.Background(), "long@example.com")
	assert.Nil(t, u)

	_, err = svc.Signup(context.Background(), "edge@example.com", strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Signup(ctx, "jane@example.com", "right")
	require.NoError(t, err)

	for _, tc := range []struct{ email, pw string }{
		{"jane@example.com", "wrong"},
		{"nobody@example.com", "right"},
	} {
		_, err := svc.Login(ctx, tc.email, tc.pw)
		status, msg := appErrors.HTTPStatus(err)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Incorrect email or password", msg)
	}
}

func TestUpdateSMTPSettings_SealsAndKeepsPassword(t *testing.T) {
	svc, users := newAuthService(t)
	ctx := context.Background()
	u, err := svc.Signup(ctx, "jane@example.com", "pw")
	require.NoError(t, err)

	assert.False(t, svc.GetSMTPSettings(u).IsConfigured)

	settings, err := svc.UpdateSMTPSettings(ctx, u, "jane@gmail.com", "app-password")
	require.NoError(t, err)
	assert.True(t, settings.IsConfigured)
	assert.Equal(t, "jane@gmail.com", *settings.SMTPEmail)

	stored, _ := users.GetByID(ctx, u.ID)
	require.NotNil(t, stored.SMTPPassword)
	assert.NotEqual(t, "app-password", *stored.SMTPPassword)
	plain, err := svc.Box.Open(*stored.SMTPPassword)
	require.NoError(t, err)
	assert.Equal(t, "app-password", plain)

	sealedBefore := *stored.SMTPPassword
	settings, err = svc.UpdateSMTPSettings(ctx, u, "jane+sales@gmail.com", "")
	require.NoError(t, err)
	assert.True(t, settings.IsConfigured)
	assert.Equal(t, sealedBefore, *stored.SMTPPassword)
	assert.Equal(t, "jane+sales@gmail.com", *stored.SMTPEmail)
}
