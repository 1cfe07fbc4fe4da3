package services

import (
	"context"
	"testing"
	"time"

	"example.com/fieldwork/services/workorders/internal/auth"
	"example.com/fieldwork/services/workorders/internal/models"
	"example.com/fieldwork/services/workorders/internal/repositories"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	return &models.User{
		ID:           7,
		FullName:     "Dana Fields",
		Email:        "dana@example.com",
		PasswordHash: "letmein",
		Role:         models.Role{ID: 2, Name: models.RoleDispatcher},
	}
}

func TestLoginMintsSession(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindUserByEmail", mock.Anything, "dana@example.com").Return(testUser(), nil)

	sessions := auth.NewMemoryStore(time.Hour)
	service := NewAuthService(mockRepo, sessions)

	token, identity, err := service.Login(context.Background(), "  dana@example.com  ", "letmein")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, uint(7), identity.UserID)
	require.Equal(t, models.RoleDispatcher, identity.Role)

	stored, err := sessions.Get(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, *identity, *stored)
}

func TestLoginWrongPassword(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindUserByEmail", mock.Anything, "dana@example.com").Return(testUser(), nil)

	service := NewAuthService(mockRepo, auth.NewMemoryStore(time.Hour))

	_, _, err := service.Login(context.Background(), "dana@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	mockRepo := new(MockRepository)
	mockRepo.On("FindUserByEmail", mock.Anything, "ghost@example.com").Return(nil, repositories.ErrNotFound)

	service := NewAuthService(mockRepo, auth.NewMemoryStore(time.Hour))

	_, _, err := service.Login(context.Background(), "ghost@example.com", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRequiresCredentials(t *testing.T) {
	service := NewAuthService(new(MockRepository), auth.NewMemoryStore(time.Hour))

	_, _, err := service.Login(context.Background(), "", "pw")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLogoutDeletesSession(t *testing.T) {
	sessions := auth.NewMemoryStore(time.Hour)
	service := NewAuthService(new(MockRepository), sessions)

	token, err := sessions.Create(context.Background(), auth.Identity{UserID: 7})
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), token))

	_, err = sessions.Get(context.Background(), token)
	require.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestLogoutWithoutTokenIsNoOp(t *testing.T) {
	service := NewAuthService(new(MockRepository), auth.NewMemoryStore(time.Hour))
	require.NoError(t, service.Logout(context.Background(), ""))
}
