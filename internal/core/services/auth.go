package services

import (
	"context"
	"errors"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/domain"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// authService implements the AuthService interface
type authService struct {
	verifier driven.TokenVerifier
	clock    driven.Clock
}

// NewAuthService creates a new AuthService
func NewAuthService(verifier driven.TokenVerifier, clock driven.Clock) driving.AuthService {
	return &authService{
		verifier: verifier,
		clock:    clock,
	}
}

// ValidateToken parses a bearer token issued by the identity service
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.verifier.ParseToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	// Check expiration against our clock too; verifiers may allow leeway
	if claims.ExpiresAt != 0 && s.clock.Now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}
	if claims.UserID == "" {
		return nil, domain.ErrTokenInvalid
	}

	role := claims.Role
	if role != domain.RoleAdmin {
		role = domain.RoleReader
	}
	return &domain.AuthContext{
		UserID: claims.UserID,
		Role:   role,
	}, nil
}
