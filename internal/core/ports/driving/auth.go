package driving

import (
	"context"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
)

// AuthService resolves bearer tokens into callers
type AuthService interface {
	// ValidateToken validates a JWT token and returns the auth context.
	// Returns domain.ErrTokenExpired or domain.ErrTokenInvalid.
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}
