package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/metrics"
	"google.golang.org/api/option"
)

// multicastLimit is the FCM cap on tokens per multicast request.
const multicastLimit = 500

// TokenSource looks up device push tokens.
type TokenSource interface {
	PushToken(ctx context.Context, userID uuid.UUID) (string, error)
	PushTokens(ctx context.Context, role types.UserRole) ([]string, error)
}

type messenger interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// Sender delivers pushes through Firebase Cloud Messaging.
type Sender struct {
	client messenger
	tokens TokenSource
}

// New builds a Sender from a service account file. Without a credentials file the
// Sender is returned unconfigured and every call fails with types.ErrNotConfigured.
func New(ctx context.Context, projectID, credentialsFile string, tokens TokenSource) (*Sender, error) {
	if credentialsFile == "" {
		return &Sender{tokens: tokens}, nil
	}

	conf := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, conf, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialising firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase messaging client: %w", err)
	}

	return &Sender{client: client, tokens: tokens}, nil
}

func (s *Sender) Configured() bool {
	return s.client != nil
}

// Push sends one notification to the registered device of req.UserID.
func (s *Sender) Push(ctx context.Context, req models.PushRequest) (res models.PushResult, err error) {
	const op = "FCMSender.Push"
	defer func() { metrics.RecordPushDelivery("fcm", err) }()

	if s.client == nil {
		return models.PushResult{}, types.ErrNotConfigured
	}

	token, err := s.tokens.PushToken(ctx, req.UserID)
	if err != nil {
		return models.PushResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if token == "" {
		return models.PushResult{Success: false}, nil
	}

	msg := &messaging.Message{
		Token: token,
		Data:  req.Data,
		Notification: &messaging.Notification{
			Title: req.Title,
			Body:  req.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	messageID, err := s.client.Send(ctx, msg)
	if err != nil {
		ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: types.ActionPushFailed, UserID: req.UserID.String()})
		return models.PushResult{}, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	return models.PushResult{Success: true, MessageID: messageID}, nil
}

// Multicast sends one notification to every registered device of the audience.
func (s *Sender) Multicast(ctx context.Context, req models.BroadcastRequest) (res models.BroadcastResult, err error) {
	const op = "FCMSender.Multicast"
	defer func() { metrics.RecordPushDelivery("fcm_multicast", err) }()

	if s.client == nil {
		return models.BroadcastResult{}, types.ErrNotConfigured
	}

	tokens, err := s.tokens.PushTokens(ctx, req.Audience.Role())
	if err != nil {
		return models.BroadcastResult{}, fmt.Errorf("%s: %w", op, err)
	}

	data := map[string]string{
		"type":     types.KindPromotional.String(),
		"audience": string(req.Audience),
	}

	for start := 0; start < len(tokens); start += multicastLimit {
		end := min(start+multicastLimit, len(tokens))

		br, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens: tokens[start:end],
			Data:   data,
			Notification: &messaging.Notification{
				Title: req.Title,
				Body:  req.Body,
			},
		})
		if err != nil {
			ctx = wrap.WithAction(ctx, types.ActionPushFailed)
			res.Failed += end - start
			return res, wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
		}
		res.Sent += br.SuccessCount
		res.Failed += br.FailureCount
	}

	return res, nil
}
