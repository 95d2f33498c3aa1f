package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// User represents a dashboard user account
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"emailVerified"`
	Name          string     `json:"name,omitempty"`
	AvatarURL     string     `json:"avatarUrl,omitempty"`
	PasswordHash  string     `json:"-"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	// Related data (populated by resolver)
	Tenants []TenantMember `json:"tenants,omitempty"`
}

// UserInput represents input for creating/updating a user
type UserInput struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password,omitempty" validate:"omitempty,min=8"`
	Name     *string `json:"name,omitempty"`
}

// UserUpdateInput represents input for updating a user
type UserUpdateInput struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// UserSession represents a refresh-token session
type UserSession struct {
	ID           uuid.UUID `json:"id"`
	SessionToken string    `json:"sessionToken"`
	UserID       uuid.UUID `json:"userId"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthResult represents the result of an authentication attempt
type AuthResult struct {
	User         *User     `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// JWTClaims represents JWT token claims
type JWTClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// LoginInput represents input for login
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput represents input for registration
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name,omitempty"`
}
