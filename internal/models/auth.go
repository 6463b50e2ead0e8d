package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignupRequest bootstraps the first administrator.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`

	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// AuthResponse returns the issued access token and user info.
type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        UserInfo  `json:"user"`
}

// UserInfo describes a user in responses.
type UserInfo struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens. The user id travels
// as the registered subject and is copied into UserID after validation.
type JWTClaims struct {
	UserID string   `json:"-"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	Name   string   `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Info returns the identity embedded in the token.
func (c *JWTClaims) Info() UserInfo {
	return UserInfo{ID: c.UserID, Name: c.Name, Email: c.Email, Role: c.Role}
}
