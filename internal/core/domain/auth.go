package domain

// Role defines the caller's permission level
type Role string

const (
	RoleAdmin  Role = "admin"  // Invalidate any reader's caches
	RoleReader Role = "reader" // Search and personal recommendations
)

// AuthContext contains authenticated caller info for request context
type AuthContext struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// IsAdmin checks if the authenticated caller is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	UserID    string `json:"user_id"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
