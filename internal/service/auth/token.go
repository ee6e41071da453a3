package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/hasher"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/trm"
)

type TokenService struct {
	userRepo    UserRepo
	refreshRepo RefreshTokenRepo
	txManager   trm.TxManager
	RefreshTTL  time.Duration
	AccessTTL   time.Duration
	secret      string
	log         logger.Logger
}

func NewTokenService(secret string, userRepo UserRepo, refreshRepo RefreshTokenRepo, txManager trm.TxManager, refreshTTL, accessTTL time.Duration, log logger.Logger) *TokenService {
	return &TokenService{
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		txManager:   txManager,
		RefreshTTL:  refreshTTL,
		AccessTTL:   accessTTL,
		secret:      secret,
		log:         log,
	}
}

// GenerateTokens signs an access and refresh pair for user.
// Only the hash of the refresh token is persisted.
func (s *TokenService) GenerateTokens(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "generate_tokens")
	if user == nil {
		return nil, wrap.Error(ctx, errors.New("user is nil"))
	}

	issuedAt := time.Now().UTC()
	accessID := uuid.New()
	refreshID := uuid.New()

	accessExp := issuedAt.Add(s.AccessTTL)
	refreshExp := issuedAt.Add(s.RefreshTTL)

	accessToken, err := s.signClaims(NewAccessClaim(user, issuedAt, s.AccessTTL, accessID))
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	refreshToken, err := s.signClaims(NewRefreshClaim(user, issuedAt, s.RefreshTTL, refreshID))
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	record := &models.RefreshTokenRecord{
		ID:        refreshID,
		UserID:    user.ID,
		TokenHash: hasher.Hash(refreshToken),
		ExpiresAt: refreshExp,
		CreatedAt: issuedAt,
	}
	if err := s.refreshRepo.Save(ctx, record); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("failed to persist refresh token: %w", err))
	}

	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh rotates a refresh token. The presented token is marked used and a new pair is issued
// in the same transaction.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "refresh_token")

	claims, err := s.Validate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != models.RefreshToken {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	var pair *models.TokenPair

	txErr := s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.consume(txCtx, claims.TokenID, refreshToken); err != nil {
			return err
		}

		user, err := s.userRepo.GetByID(txCtx, claims.UserID)
		if err != nil {
			if errors.Is(err, types.ErrUserNotFound) {
				return ErrInvalidToken
			}
			return fmt.Errorf("failed to load user for refresh token: %w", err)
		}

		pair, err = s.GenerateTokens(txCtx, user)
		return err
	})
	if txErr != nil {
		s.revokeOnReuse(ctx, txErr)
		return nil, wrap.Error(ctx, txErr)
	}

	return pair, nil
}

// Revoke marks a refresh token used so it can no longer be exchanged.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	ctx = wrap.WithAction(ctx, "revoke_token")

	claims, err := s.Validate(ctx, refreshToken)
	if err != nil {
		return err
	}
	if claims.TokenType != models.RefreshToken {
		return wrap.Error(ctx, ErrInvalidToken)
	}

	err = s.txManager.Do(ctx, func(txCtx context.Context) error {
		return s.consume(txCtx, claims.TokenID, refreshToken)
	})
	if err != nil {
		s.revokeOnReuse(ctx, err)
		return wrap.Error(ctx, err)
	}
	return nil
}

// reusedTokenError marks a refresh token presented after it was already used.
type reusedTokenError struct {
	userID uuid.UUID
}

func (e *reusedTokenError) Error() string { return ErrInvalidToken.Error() }

func (e *reusedTokenError) Unwrap() error { return ErrInvalidToken }

// consume checks the stored record of a refresh token and marks it used.
func (s *TokenService) consume(ctx context.Context, tokenID uuid.UUID, refreshToken string) error {
	record, err := s.refreshRepo.Get(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("failed to load refresh token record: %w", err)
	}
	if record == nil {
		return ErrInvalidToken
	}
	if record.Revoked {
		return &reusedTokenError{userID: record.UserID}
	}
	if time.Now().UTC().After(record.ExpiresAt) {
		return ErrExpToken
	}
	if !hasher.Verify(refreshToken, record.TokenHash) {
		return ErrInvalidToken
	}

	if err := s.refreshRepo.MarkUsed(ctx, record.ID); err != nil {
		return fmt.Errorf("failed to mark refresh token as used: %w", err)
	}
	return nil
}

// revokeOnReuse revokes every refresh token of a user whose used token was replayed.
// It runs after the failed transaction has rolled back.
func (s *TokenService) revokeOnReuse(ctx context.Context, err error) {
	var reused *reusedTokenError
	if !errors.As(err, &reused) {
		return
	}

	s.log.Warn(ctx, "revoked refresh token presented", "user_id", reused.userID.String())
	if err := s.refreshRepo.RevokeAllForUser(ctx, reused.userID); err != nil {
		s.log.Error(ctx, "failed to revoke refresh tokens", err, "user_id", reused.userID.String())
	}
}

// Validate parses an HS256 token and returns its claims.
func (s *TokenService) Validate(ctx context.Context, token string) (*models.CustomClaims, error) {
	ctx = wrap.WithAction(ctx, "validate_token")

	parsedToken, err := jwt.ParseWithClaims(token, jwt.MapClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(s.secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, wrap.Error(ctx, ErrExpToken)
		}
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}
	if !parsedToken.Valid {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	mc, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	typ, _ := mc["typ"].(string)
	if !models.IsValidTokenType(typ) {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	userIDStr, _ := mc["user_id"].(string)
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: invalid 'user_id' claim", ErrInvalidToken))
	}

	tokenIDStr, _ := mc["jti"].(string)
	tokenID, err := uuid.Parse(tokenIDStr)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: invalid 'jti' claim", ErrInvalidToken))
	}

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: missing 'exp' claim", ErrInvalidToken))
	}

	email, _ := mc["email"].(string)
	role, _ := mc["role"].(string)

	return &models.CustomClaims{
		UserID:    userID,
		TokenID:   tokenID,
		TokenType: typ,
		Email:     email,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: exp,
		},
	}, nil
}

func (s *TokenService) signClaims(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

func NewAccessClaim(user *models.User, issuedAt time.Time, accessTTL time.Duration, tokenID uuid.UUID) jwt.Claims {
	return jwt.MapClaims{
		"typ":     models.AccessToken,
		"jti":     tokenID.String(),
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    user.Role.String(),
		"iat":     issuedAt.Unix(),
		"exp":     issuedAt.Add(accessTTL).Unix(),
	}
}

func NewRefreshClaim(user *models.User, issuedAt time.Time, refreshTTL time.Duration, tokenID uuid.UUID) jwt.Claims {
	return jwt.MapClaims{
		"typ":     models.RefreshToken,
		"jti":     tokenID.String(),
		"user_id": user.ID.String(),
		"iat":     issuedAt.Unix(),
		"exp":     issuedAt.Add(refreshTTL).Unix(),
	}
}
