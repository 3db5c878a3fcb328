package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	pkgauth "github.com/MazadiaS/ai-crm-messaging-system/pkg/auth"
	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperrors.Conflict("user with this email already exists")
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NotFound("user", nil)
}

func newTestService(repo *fakeUserRepo) *Service {
	jwt := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Minute,
		RefreshExpiry: time.Hour,
	})
	return NewService(repo, security.NewBcryptHasher(4), jwt, zerolog.Nop())
}

func TestRegisterDefaultsToViewer(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "new@example.com",
		FullName: "New User",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.Equal(t, model.RoleViewer, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)
}

func TestRegisterRejectsInvalidRole(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "new@example.com",
		FullName: "New User",
		Password: "password123",
		Role:     "superuser",
	})
	require.Error(t, err)
}

func TestLoginRoundTrip(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestService(repo)

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "manager@example.com",
		FullName: "Manager",
		Password: "password123",
		Role:     "manager",
	})
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "manager@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.Equal(t, int64(60), tokens.ExpiresIn)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "user@example.com",
		FullName: "User",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "user@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)

	// Unknown email yields the same error shape.
	_, err2 := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	require.Error(t, err2)
	assert.Equal(t, err.Error(), err2.Error())
}

func TestRefreshIssuesNewPair(t *testing.T) {
	svc := newTestService(newFakeUserRepo())

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "user@example.com",
		FullName: "User",
		Password: "password123",
	})
	require.NoError(t, err)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "user@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// An access token is not a valid refresh token.
	_, err = svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: tokens.AccessToken,
	})
	require.Error(t, err)
}
