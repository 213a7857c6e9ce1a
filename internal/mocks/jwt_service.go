package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/service/auth"
)

// MockJWTService is a scriptable auth.JWTService. The Fn fields take
// precedence; otherwise the canned values are returned.
type MockJWTService struct {
	GenerateTokenFn func(ctx context.Context, userID uuid.UUID) (string, error)
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	Token       string
	Err         error
	ValidateErr error
	Claims      *auth.Claims
}

var _ auth.JWTService = (*MockJWTService)(nil)

// NewMockJWTServiceForUser returns a MockJWTService that accepts any token
// as belonging to userID.
func NewMockJWTServiceForUser(userID uuid.UUID) *MockJWTService {
	return &MockJWTService{Claims: &auth.Claims{UserID: userID, TokenType: "access", Subject: userID.String()}}
}

func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, userID)
	}
	return m.Token, m.Err
}

func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	return m.Claims, m.ValidateErr
}
