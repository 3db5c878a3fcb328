package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MazadiaS/ai-crm-messaging-system/internal/model"
	"github.com/MazadiaS/ai-crm-messaging-system/internal/repository"
	pkgauth "github.com/MazadiaS/ai-crm-messaging-system/pkg/auth"
	apperrors "github.com/MazadiaS/ai-crm-messaging-system/pkg/errors"
	"github.com/MazadiaS/ai-crm-messaging-system/pkg/security"
)

type Service struct {
	repo   repository.UserRepository
	hasher security.PasswordHasher
	jwt    pkgauth.JWTService
	logger zerolog.Logger
}

func NewService(repo repository.UserRepository, hasher security.PasswordHasher, jwt pkgauth.JWTService, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		jwt:    jwt,
		logger: logger,
	}
}

// Register creates a user account. Unspecified roles default to viewer.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	role := model.UserRole(req.Role)
	if req.Role == "" {
		role = model.RoleViewer
	} else if !role.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid role: %s", req.Role), nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest("invalid password", err)
	}

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         role,
		PasswordHash: hash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID.String()).Str("role", string(role)).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues a token pair. Unknown emails and bad
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, req *model.RefreshRequest) (*model.TokenResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	user, err := s.repo.Get(ctx, claims.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, err
	}

	return s.issueTokens(user)
}

// Me returns the account behind the authenticated claims.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *Service) issueTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.jwt.AccessExpiry().Seconds()),
	}, nil
}
