// Package service provides the business logic for authentication, the
// social token lifecycle, widget management and the feed cache engine,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"fmt"
)

// AuthRepository defines the persistence operations required by the
// authentication service.
type AuthRepository interface {
	// UserIDForTokenHash resolves a hashed API token to its owning user id.
	UserIDForTokenHash(ctx context.Context, tokenHash string) (string, error)
}

// Hasher produces the one-way digest used for token verification.
type Hasher interface {
	Hash(text string) string
}

// AuthService verifies API tokens by hashed lookup.
type AuthService struct {
	repo   AuthRepository
	hasher Hasher
}

// NewAuthService constructs an AuthService using the provided repository
// and hasher.
func NewAuthService(repo AuthRepository, hasher Hasher) *AuthService {
	return &AuthService{repo: repo, hasher: hasher}
}

// VerifyToken resolves a plaintext API token to a user id. The token is
// hashed before lookup so plaintext never reaches the store.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (string, error) {
	userID, err := s.repo.UserIDForTokenHash(ctx, s.hasher.Hash(token))
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	return userID, nil
}
