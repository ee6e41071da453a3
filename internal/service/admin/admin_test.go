package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/notification"
	"github.com/hpyride/hpyride/pkg/logger"
	"github.com/hpyride/hpyride/pkg/passhash"
	"golang.org/x/crypto/bcrypt"
)

type stubUsers struct {
	users map[string]*models.User
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUsers) List(context.Context, types.UserRole, models.Filters) ([]models.User, models.Metadata, error) {
	return nil, models.Metadata{}, nil
}

type memSessions struct {
	data map[string]*models.AdminSession
	ttl  time.Duration
}

func (m *memSessions) Save(_ context.Context, key string, s *models.AdminSession, ttl time.Duration) error {
	m.data[key] = s
	m.ttl = ttl
	return nil
}

func (m *memSessions) Get(_ context.Context, key string) (*models.AdminSession, error) {
	s, ok := m.data[key]
	if !ok {
		return nil, types.ErrNotFound
	}
	return s, nil
}

func (m *memSessions) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type stubReviews struct {
	pending map[uuid.UUID]*models.Verification
}

func (s *stubReviews) ListVerifications(context.Context, types.VerificationStatus, models.Filters) ([]models.Verification, models.Metadata, error) {
	return nil, models.Metadata{}, nil
}

func (s *stubReviews) ReviewVerification(_ context.Context, id uuid.UUID, r models.Review) (*models.Verification, error) {
	v, ok := s.pending[id]
	if !ok || v.Status != types.VerificationPending {
		return nil, types.ErrNotFound
	}
	v.Status = r.Status
	v.Reason = r.Reason
	v.ReviewedBy = &r.ReviewerID
	return v, nil
}

func (s *stubReviews) ListVehicles(context.Context, types.VerificationStatus, models.Filters) ([]models.Vehicle, models.Metadata, error) {
	return nil, models.Metadata{}, nil
}

func (s *stubReviews) ReviewVehicle(context.Context, uuid.UUID, models.Review) (*models.Vehicle, error) {
	return nil, types.ErrNotFound
}

type recordingNotifier struct {
	sent []notification.Template
	to   []uuid.UUID
}

func (n *recordingNotifier) Send(_ context.Context, userID uuid.UUID, t notification.Template) (*models.Notification, error) {
	n.sent = append(n.sent, t)
	n.to = append(n.to, userID)
	return &models.Notification{}, nil
}

func newTestAdmin(t *testing.T) (*AdminService, *memSessions, *stubReviews, *recordingNotifier) {
	t.Helper()
	hash, err := passhash.HashPasswordWithCost("admin-pass", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	riderHash, _ := passhash.HashPasswordWithCost("rider-pass", bcrypt.MinCost)

	users := &stubUsers{users: map[string]*models.User{
		"admin@hpyride.in": {ID: uuid.New(), Email: "admin@hpyride.in", Name: "Ops", Role: types.RoleAdmin, PasswordHash: hash},
		"rider@hpyride.in": {ID: uuid.New(), Email: "rider@hpyride.in", Role: types.RoleRider, PasswordHash: riderHash},
	}}
	sessions := &memSessions{data: map[string]*models.AdminSession{}}
	reviews := &stubReviews{pending: map[uuid.UUID]*models.Verification{}}
	notifier := &recordingNotifier{}

	svc := NewAdminService(users, sessions, reviews, nil, notifier, 12*time.Hour, logger.Discard())
	return svc, sessions, reviews, notifier
}

func TestLogin_SessionHoldsNoCredentials(t *testing.T) {
	svc, sessions, _, _ := newTestAdmin(t)
	ctx := context.Background()

	session, err := svc.Login(ctx, "Admin@HpyRide.in", "admin-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token == "" || session.AdminUser.Email != "admin@hpyride.in" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if sessions.ttl != 12*time.Hour {
		t.Errorf("ttl = %v", sessions.ttl)
	}
	if _, ok := sessions.data[session.Token]; ok {
		t.Error("session stored under the raw token")
	}

	admin, err := svc.Authorize(ctx, session.Token)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if admin.Name != "Ops" {
		t.Errorf("admin = %+v", admin)
	}

	if err := svc.Logout(ctx, session.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Authorize(ctx, session.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession after logout, got %v", err)
	}
}

func TestLogin_Rejections(t *testing.T) {
	svc, _, _, _ := newTestAdmin(t)
	ctx := context.Background()

	cases := []struct {
		email, password string
	}{
		{"admin@hpyride.in", "wrong"},
		{"rider@hpyride.in", "rider-pass"},
		{"ghost@hpyride.in", "x"},
	}
	for _, c := range cases {
		if _, err := svc.Login(ctx, c.email, c.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: expected ErrInvalidCredentials, got %v", c.email, err)
		}
	}

	if _, err := svc.Authorize(ctx, ""); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("empty token: %v", err)
	}
}

func TestReviewVerification_NotifiesOwner(t *testing.T) {
	svc, _, reviews, notifier := newTestAdmin(t)
	ctx := context.Background()

	owner := uuid.New()
	v := &models.Verification{ID: uuid.New(), UserID: owner, Status: types.VerificationPending}
	reviews.pending[v.ID] = v

	admin := &models.AdminUser{ID: uuid.New()}
	got, err := svc.ReviewVerification(ctx, admin, v.ID, false, " blurry photo ")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if got.Status != types.VerificationRejected || got.Reason != "blurry photo" || *got.ReviewedBy != admin.ID {
		t.Errorf("unexpected review: %+v", got)
	}

	if len(notifier.sent) != 1 || notifier.to[0] != owner {
		t.Fatalf("notifications = %+v", notifier.sent)
	}
	if notifier.sent[0].Kind != types.KindVerificationRejected {
		t.Errorf("kind = %q", notifier.sent[0].Kind)
	}

	if _, err := svc.ReviewVerification(ctx, admin, v.ID, true, ""); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("second review: expected ErrNotFound, got %v", err)
	}
}
