package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role distinguishes the two kinds of callers.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStudent
}

// LoginRequest exchanges a role secret for a bearer token.
type LoginRequest struct {
	Role      Role   `json:"role" validate:"required,oneof=admin student"`
	Secret    string `json:"secret" validate:"required"`
	StudentID string `json:"student_id" validate:"omitempty,uuid"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	Role        Role      `json:"role"`
	StudentID   string    `json:"student_id,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	Role      Role   `json:"role"`
	StudentID string `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor is the authenticated caller a service call is made on behalf of.
type Actor struct {
	Role      Role
	StudentID string
}

// ActorFromClaims converts validated claims into an Actor.
func ActorFromClaims(claims *JWTClaims) *Actor {
	if claims == nil {
		return nil
	}
	return &Actor{Role: claims.Role, StudentID: claims.StudentID}
}

// IsAdmin reports whether the actor holds the admin role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// CanAccessStudent reports whether the actor may act on studentID's data.
func (a *Actor) CanAccessStudent(studentID string) bool {
	if a == nil {
		return false
	}
	if a.Role == RoleAdmin {
		return true
	}
	return a.Role == RoleStudent && a.StudentID != "" && a.StudentID == studentID
}

// Identity echoes the caller back to clients.
type Identity struct {
	Role      Role       `json:"role"`
	StudentID string     `json:"student_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
