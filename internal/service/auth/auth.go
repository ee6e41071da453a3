package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/passhash"
)

type AuthService struct {
	userRepo     UserRepo
	tokenService TokenProvider
	log          logger.Logger
}

func NewAuthService(userRepo UserRepo, tokenService TokenProvider, log logger.Logger) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		tokenService: tokenService,
		log:          log,
	}
}

// Register creates a rider or driver account.
func (s *AuthService) Register(ctx context.Context, req *models.UserCreateRequest) (*models.User, error) {
	ctx = wrap.WithAction(ctx, "user_register")

	if req.Role == "" {
		req.Role = types.RoleRider
	}
	if req.Role != types.RoleRider && req.Role != types.RoleDriver {
		return nil, ErrCannotCreateAdmin
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, types.ErrUserNotFound) {
		s.log.Error(ctx, "failed to look up user", err)
		return nil, ErrUnexpected
	}
	if existing != nil {
		return nil, ErrNotUniqueEmail
	}

	hash, err := passhash.HashPassword(req.Password)
	if err != nil {
		s.log.Error(ctx, "failed to generate hash from password", err)
		return nil, ErrUnexpected
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        req.Phone,
		Role:         req.Role,
		PasswordHash: hash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrNotUniqueEmail) {
			return nil, ErrNotUniqueEmail
		}
		s.log.Error(ctx, "failed to save user", err)
		return nil, ErrUnexpected
	}

	s.log.Info(wrap.WithUserID(ctx, user.ID.String()), "user registered", "role", user.Role.String())
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "user_login")

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.log.Error(ctx, "failed to look up user", err)
		return nil, ErrUnexpected
	}

	ok, err := passhash.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.tokenService.GenerateTokens(ctx, user)
	if err != nil {
		s.log.Error(ctx, "failed to generate tokens", err)
		return nil, ErrTokenGenerateFail
	}

	return tokens, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	return s.tokenService.Refresh(ctx, refreshToken)
}

// Logout revokes the refresh token. Access tokens expire on their own.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokenService.Revoke(ctx, refreshToken)
}

// Authenticate resolves an access token to its user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokenService.Validate(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != models.AccessToken {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, ErrUnexpected
	}

	return user, nil
}
