package services

import (
	"context"
	"strings"

	"example.com/fieldwork/services/workorders/internal/auth"
	"example.com/fieldwork/services/workorders/internal/repositories"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// AuthService handles login and session lifecycle
type AuthService struct {
	repo     repositories.Repository
	sessions auth.Store
}

// NewAuthService creates a new auth service
func NewAuthService(repo repositories.Repository, sessions auth.Store) *AuthService {
	return &AuthService{
		repo:     repo,
		sessions: sessions,
	}
}

// Login verifies the credentials and mints a session token. The stored
// credential is compared as-is: the seed data keeps plain passwords in
// the password_hash column.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *auth.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", nil, NewValidationError("Email and password are required.")
	}

	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if password != user.PasswordHash {
		return "", nil, ErrInvalidCredentials
	}

	identity := auth.Identity{
		UserID:   user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role.Name,
	}

	token, err := s.sessions.Create(ctx, identity)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to create session")
	}

	log.Info().
		Uint("user_id", user.ID).
		Str("role", identity.Role).
		Msg("User logged in")

	return token, &identity, nil
}

// Logout destroys the session for the given token. Unknown tokens are
// a no-op, matching the idempotent logout contract.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}
