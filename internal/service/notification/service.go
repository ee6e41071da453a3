package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/metrics"
)

var ErrEmptyPushToken = errors.New("push token is empty")

// Service writes notification rows and requests push delivery.
// The row is the durable record; push is best effort.
type Service struct {
	repo   NotificationRepo
	tokens PushTokenRepo
	push   PushSender
	multi  Multicaster
	log    logger.Logger
}

func NewService(repo NotificationRepo, tokens PushTokenRepo, push PushSender, multi Multicaster, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		push:   push,
		multi:  multi,
		log:    log,
	}
}

// Send stores t for userID and then requests a push. Push failures are logged and not returned.
func (s *Service) Send(ctx context.Context, userID uuid.UUID, t Template) (*models.Notification, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "send_notification", UserID: userID.String()})

	n := &models.Notification{
		UserID:  userID,
		Type:    t.Kind,
		Title:   t.Title,
		Body:    t.Body,
		Payload: t.Data,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Error(ctx, "failed to store notification", err, "kind", t.Kind.String())
		return nil, wrap.Error(ctx, fmt.Errorf("store notification: %w", err))
	}
	metrics.NotificationsCreatedTotal.WithLabelValues(t.Kind.String()).Inc()

	s.requestPush(ctx, n)

	return n, nil
}

func (s *Service) requestPush(ctx context.Context, n *models.Notification) {
	if s.push == nil {
		return
	}

	data := make(map[string]string, len(n.Payload)+2)
	for k, v := range n.Payload {
		data[k] = v
	}
	data["type"] = n.Type.String()
	data["notification_id"] = n.ID.String()

	res, err := s.push.Push(ctx, models.PushRequest{
		UserID: n.UserID,
		Title:  n.Title,
		Body:   n.Body,
		Data:   data,
	})
	if err != nil {
		s.log.Error(ctx, "push delivery failed", err, "notification_id", n.ID.String())
		return
	}
	if !res.Success {
		s.log.Warn(ctx, "push not delivered", "notification_id", n.ID.String())
		return
	}
	s.log.Debug(ctx, "push delivered", "message_id", res.MessageID)
}

// Broadcast stores a promotional row for every user of the audience and then
// requests one multicast push.
func (s *Service) Broadcast(ctx context.Context, req models.BroadcastRequest) (models.BroadcastResult, error) {
	ctx = wrap.WithAction(ctx, "broadcast_notification")

	req.Title = strings.TrimSpace(req.Title)
	req.Body = strings.TrimSpace(req.Body)
	if req.Audience == "" {
		req.Audience = types.AudienceAll
	}
	if req.Title == "" || req.Body == "" || !req.Audience.Valid() {
		return models.BroadcastResult{}, types.ErrInvalidInput
	}

	t := Promotional(req.Title, req.Body)
	stored, err := s.repo.CreateForAudience(ctx, req.Audience.Role(), models.Notification{
		Type:  t.Kind,
		Title: t.Title,
		Body:  t.Body,
	})
	if err != nil {
		s.log.Error(ctx, "failed to store broadcast", err, "audience", string(req.Audience))
		return models.BroadcastResult{}, wrap.Error(ctx, fmt.Errorf("store broadcast: %w", err))
	}
	metrics.NotificationsCreatedTotal.WithLabelValues(t.Kind.String()).Add(float64(stored))

	if s.multi == nil {
		return models.BroadcastResult{Failed: stored}, nil
	}

	res, err := s.multi.Multicast(ctx, req)
	if err != nil {
		s.log.Error(ctx, "broadcast push failed", err, "audience", string(req.Audience), "stored", stored)
		return models.BroadcastResult{Failed: stored}, nil
	}

	s.log.Info(ctx, "broadcast sent", "audience", string(req.Audience), "stored", stored, "sent", res.Sent, "failed", res.Failed)
	return res, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, filters models.Filters) ([]models.Notification, models.Metadata, error) {
	const op = "NotificationService.ListForUser"
	list, meta, err := s.repo.ListByUser(ctx, userID, unreadOnly, filters)
	if err != nil {
		return nil, models.Metadata{}, fmt.Errorf("%s: %w", op, err)
	}
	return list, meta, nil
}

func (s *Service) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	const op = "NotificationService.MarkRead"
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "NotificationService.MarkAllRead"
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	const op = "NotificationService.UnreadCount"
	n, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// RegisterPushToken stores the device push token of a user.
func (s *Service) RegisterPushToken(ctx context.Context, userID uuid.UUID, token string) error {
	const op = "NotificationService.RegisterPushToken"
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyPushToken
	}
	if err := s.tokens.SetPushToken(ctx, userID, token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
