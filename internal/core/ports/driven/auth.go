package driven

import "github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"

// TokenVerifier handles bearer token operations (JWT).
// Tokens are minted by the platform's identity service; GenerateToken exists
// for development tooling.
type TokenVerifier interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
