// Package auth validates the bearer tokens issued by the external auth
// service and identifies the current user.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService validates access tokens. GenerateToken exists for operators
// and tests; production tokens come from the auth service, which shares the
// signing secret.
type JWTService interface {
	// GenerateToken creates a signed access token for userID.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken checks signature, type and validity window and returns
	// the claims of a usable token.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the facts a valid access token establishes.
type Claims struct {
	// UserID is the current user.
	UserID uuid.UUID `json:"uid,omitempty"`

	TokenType string    `json:"type,omitempty"`
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
