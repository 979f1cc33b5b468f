package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/notenpfad-api/internal/models"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

const testStudentID = "3b241101-e2bb-4255-8caf-4136c566a962"

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(nil, nil, NewMetricsService(), AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "notenpfad-api",
		AdminSecret:       "admin-pass",
		StudentSecret:     "student-pass",
	})
}

func TestAuthServiceLoginAdmin(t *testing.T) {
	svc := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Role: models.RoleAdmin, Secret: "admin-pass"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Empty(t, resp.StudentID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Empty(t, claims.StudentID)
	assert.Equal(t, "notenpfad-api", claims.Issuer)
}

func TestAuthServiceLoginStudent(t *testing.T) {
	svc := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Role: models.RoleStudent, Secret: "student-pass", StudentID: testStudentID})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, testStudentID, claims.StudentID)
	assert.Equal(t, testStudentID, claims.Subject)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Role: models.RoleAdmin, Secret: "student-pass"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Role: models.RoleStudent, Secret: "student-pass"})
	assert.ErrorIs(t, err, appErrors.ErrValidation, "student login needs an id")

	_, err = svc.Login(ctx, models.LoginRequest{Role: "guest", Secret: "admin-pass"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	assert.Equal(t, uint64(1), svc.metrics.Snapshot().AuthFailures)
}

func TestAuthServiceBcryptSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-admin"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := newTestAuthService(t)
	svc.config.AdminSecret = string(hash)

	_, err = svc.Login(context.Background(), models.LoginRequest{Role: models.RoleAdmin, Secret: "hashed-admin"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), models.LoginRequest{Role: models.RoleAdmin, Secret: string(hash)})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceValidateExpiredToken(t *testing.T) {
	svc := newTestAuthService(t)
	issued := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, _, err := svc.IssueToken(models.RoleStudent, testStudentID)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	assert.Equal(t, "token expired", appErr.Message)
}

func TestAuthServiceValidateRejectsTampering(t *testing.T) {
	svc := newTestAuthService(t)

	t.Run("wrong secret", func(t *testing.T) {
		other := newTestAuthService(t)
		other.config.AccessTokenSecret = "other-secret"
		token, _, err := other.IssueToken(models.RoleAdmin, "")
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	})

	t.Run("none algorithm", func(t *testing.T) {
		claims := &models.JWTClaims{Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "notenpfad-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := &models.JWTClaims{Role: models.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Issuer: "notenpfad-api"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	})

	t.Run("student without id", func(t *testing.T) {
		claims := &models.JWTClaims{Role: models.RoleStudent, RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "notenpfad-api",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	})
}

func TestSecretMatches(t *testing.T) {
	assert.True(t, secretMatches("abc", "abc"))
	assert.False(t, secretMatches("abc", "abd"))
	assert.False(t, secretMatches("", ""))
	assert.False(t, secretMatches("abc", ""))
}
