package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/notification"
	"github.com/hpyride/hpyride/pkg/hasher"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/passhash"
)

const sessionTokenBytes = 32

type AdminService struct {
	users      UserRepo
	sessions   SessionStore
	reviews    ReviewRepo
	overview   OverviewRepo
	notifier   Notifier
	sessionTTL time.Duration
	l          logger.Logger
}

func NewAdminService(users UserRepo, sessions SessionStore, reviews ReviewRepo, overview OverviewRepo, notifier Notifier, sessionTTL time.Duration, l logger.Logger) *AdminService {
	return &AdminService{
		users:      users,
		sessions:   sessions,
		reviews:    reviews,
		overview:   overview,
		notifier:   notifier,
		sessionTTL: sessionTTL,
		l:          l,
	}
}

// Login checks admin credentials and opens a session. The password is not kept anywhere;
// later calls present the session token.
func (s *AdminService) Login(ctx context.Context, email, password string) (*models.AdminSession, error) {
	ctx = wrap.WithAction(ctx, "admin_login")

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, wrap.Error(ctx, err)
	}
	if !user.HasRole(types.RoleAdmin) {
		s.l.Warn(wrap.WithUserID(ctx, user.ID.String()), "admin login attempt by non-admin")
		return nil, ErrInvalidCredentials
	}
	if ok, err := passhash.VerifyPassword(password, user.PasswordHash); err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := hasher.NewToken(sessionTokenBytes)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	now := time.Now().UTC()
	session := &models.AdminSession{
		Token: token,
		AdminUser: models.AdminUser{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, hasher.Hash(token), session, s.sessionTTL); err != nil {
		s.l.Error(ctx, "failed to store admin session", err)
		return nil, wrap.Error(ctx, err)
	}

	s.l.Info(wrap.WithUserID(ctx, user.ID.String()), "admin session opened")
	return session, nil
}

func (s *AdminService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, hasher.Hash(token)); err != nil {
		return fmt.Errorf("AdminService.Logout: %w", err)
	}
	return nil
}

// Authorize resolves a session token to its admin.
func (s *AdminService) Authorize(ctx context.Context, token string) (*models.AdminUser, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	session, err := s.sessions.Get(ctx, hasher.Hash(token))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("AdminService.Authorize: %w", err)
	}
	return &session.AdminUser, nil
}

func (s *AdminService) ListVerifications(ctx context.Context, status types.VerificationStatus, filters models.Filters) ([]models.Verification, models.Metadata, error) {
	const op = "AdminService.ListVerifications"
	list, meta, err := s.reviews.ListVerifications(ctx, status, filters)
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	return list, meta, nil
}

// ReviewVerification approves or rejects a pending verification and notifies its owner.
func (s *AdminService) ReviewVerification(ctx context.Context, admin *models.AdminUser, id uuid.UUID, approve bool, reason string) (*models.Verification, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "review_verification", UserID: admin.ID.String()})

	review := newReview(admin, approve, reason)
	v, err := s.reviews.ReviewVerification(ctx, id, review)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.l.Info(ctx, "verification reviewed", "verification_id", v.ID.String(), "status", string(v.Status))
	s.notify(ctx, v.UserID, notification.VerificationReviewed(approve, review.Reason).With("verification_id", v.ID.String()))
	return v, nil
}

func (s *AdminService) ListVehicles(ctx context.Context, status types.VerificationStatus, filters models.Filters) ([]models.Vehicle, models.Metadata, error) {
	const op = "AdminService.ListVehicles"
	list, meta, err := s.reviews.ListVehicles(ctx, status, filters)
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	return list, meta, nil
}

// ReviewVehicle approves or rejects a pending vehicle and notifies its owner.
func (s *AdminService) ReviewVehicle(ctx context.Context, admin *models.AdminUser, id uuid.UUID, approve bool, reason string) (*models.Vehicle, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "review_vehicle", UserID: admin.ID.String()})

	review := newReview(admin, approve, reason)
	v, err := s.reviews.ReviewVehicle(ctx, id, review)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.l.Info(ctx, "vehicle reviewed", "vehicle_id", v.ID.String(), "status", string(v.Status))
	s.notify(ctx, v.OwnerID, notification.VerificationReviewed(approve, review.Reason).With("vehicle_id", v.ID.String()))
	return v, nil
}

func (s *AdminService) ListUsers(ctx context.Context, role types.UserRole, filters models.Filters) ([]models.User, models.Metadata, error) {
	const op = "AdminService.ListUsers"
	list, meta, err := s.users.List(ctx, role, filters)
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	return list, meta, nil
}

func (s *AdminService) GetOverview(ctx context.Context) (*models.Overview, error) {
	o, err := s.overview.Overview(ctx)
	if err != nil {
		return nil, fmt.Errorf("AdminService.GetOverview: %w", err)
	}
	return o, nil
}

func (s *AdminService) notify(ctx context.Context, userID uuid.UUID, t notification.Template) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Send(ctx, userID, t); err != nil {
		s.l.Error(ctx, "failed to notify review outcome", err)
	}
}

func newReview(admin *models.AdminUser, approve bool, reason string) models.Review {
	status := types.VerificationRejected
	if approve {
		status = types.VerificationVerified
	}
	return models.Review{
		ReviewerID: admin.ID,
		Status:     status,
		Reason:     strings.TrimSpace(reason),
	}
}
