package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/notenpfad-api/internal/models"
	appErrors "github.com/noah-isme/notenpfad-api/pkg/errors"
)

// AuthConfig defines configuration for token issuance.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	Issuer            string
	AdminSecret       string
	StudentSecret     string
}

// AuthService exchanges role secrets for signed tokens and validates them.
type AuthService struct {
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	return &AuthService{
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login verifies the role secret and issues an access token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	var expected string
	switch req.Role {
	case models.RoleAdmin:
		expected = s.config.AdminSecret
	case models.RoleStudent:
		expected = s.config.StudentSecret
	}
	if !secretMatches(expected, req.Secret) {
		s.metrics.RecordAuthAttempt(req.Role, false)
		s.logger.Warn("login rejected", zap.String("role", string(req.Role)), zap.String("ip", req.IP))
		return nil, appErrors.ErrInvalidCredentials
	}

	studentID := ""
	if req.Role == models.RoleStudent {
		studentID = req.StudentID
	}

	token, issuedAt, err := s.IssueToken(req.Role, studentID)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAuthAttempt(req.Role, true)
	s.logger.Info("token issued", zap.String("role", string(req.Role)), zap.String("student_id", studentID), zap.String("ip", req.IP))

	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		Role:        req.Role,
		StudentID:   studentID,
		IssuedAt:    issuedAt,
	}, nil
}

// IssueToken signs a token for role. Student tokens must carry a student id.
func (s *AuthService) IssueToken(role models.Role, studentID string) (string, time.Time, error) {
	if !role.Valid() {
		return "", time.Time{}, appErrors.Validation("unknown role")
	}
	if role == models.RoleStudent && studentID == "" {
		return "", time.Time{}, appErrors.Validation("student_id is required for student tokens")
	}
	if role == models.RoleAdmin {
		studentID = ""
	}

	issuedAt := s.now()
	claims := &models.JWTClaims{
		Role:      role,
		StudentID: studentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   subjectFor(role, studentID),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.AccessTokenSecret))
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}
	return signed, issuedAt, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	}, opts...)
	if err != nil {
		message := "invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			message = "token expired"
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, message)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if !claims.Role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role")
	}
	if claims.Role == models.RoleStudent && claims.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "student token without student id")
	}

	return claims, nil
}

func subjectFor(role models.Role, studentID string) string {
	if role == models.RoleStudent {
		return studentID
	}
	return string(role)
}

// secretMatches compares a presented secret with the configured one. Bcrypt
// hashes are verified with bcrypt, plain values in constant time.
func secretMatches(expected, presented string) bool {
	if expected == "" || presented == "" {
		return false
	}
	if isBcryptHash(expected) {
		return bcrypt.CompareHashAndPassword([]byte(expected), []byte(presented)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}

func isBcryptHash(value string) bool {
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}
