package fcm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
)

type fakeTokens struct {
	byUser map[uuid.UUID]string
	all    []string
	role   types.UserRole
}

func (f *fakeTokens) PushToken(_ context.Context, id uuid.UUID) (string, error) {
	t, ok := f.byUser[id]
	if !ok {
		return "", types.ErrUserNotFound
	}
	return t, nil
}

func (f *fakeTokens) PushTokens(_ context.Context, role types.UserRole) ([]string, error) {
	f.role = role
	return f.all, nil
}

type fakeMessenger struct {
	sent     []*messaging.Message
	batches  [][]string
	failEach int
}

func (f *fakeMessenger) Send(_ context.Context, msg *messaging.Message) (string, error) {
	f.sent = append(f.sent, msg)
	return fmt.Sprintf("projects/p/messages/%d", len(f.sent)), nil
}

func (f *fakeMessenger) SendEachForMulticast(_ context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.batches = append(f.batches, msg.Tokens)
	failed := min(f.failEach, len(msg.Tokens))
	return &messaging.BatchResponse{
		SuccessCount: len(msg.Tokens) - failed,
		FailureCount: failed,
	}, nil
}

func TestPush(t *testing.T) {
	withToken, withoutToken := uuid.New(), uuid.New()
	m := &fakeMessenger{}
	s := &Sender{client: m, tokens: &fakeTokens{byUser: map[uuid.UUID]string{withToken: "tok-1", withoutToken: ""}}}

	res, err := s.Push(context.Background(), models.PushRequest{
		UserID: withToken,
		Title:  "🚗 Driver Arrived",
		Body:   "Ravi has arrived",
		Data:   map[string]string{"booking_id": "b1"},
	})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if !res.Success || res.MessageID == "" {
		t.Fatalf("result = %+v", res)
	}
	if len(m.sent) != 1 || m.sent[0].Token != "tok-1" || m.sent[0].Data["booking_id"] != "b1" {
		t.Fatalf("sent = %+v", m.sent)
	}
	if m.sent[0].Android == nil || m.sent[0].Android.Priority != "high" {
		t.Fatal("expected high android priority")
	}

	res, err = s.Push(context.Background(), models.PushRequest{UserID: withoutToken, Title: "t", Body: "b"})
	if err != nil || res.Success {
		t.Fatalf("no token: res=%+v err=%v", res, err)
	}
	if len(m.sent) != 1 {
		t.Fatal("no message should be sent without a token")
	}
}

func TestMulticast_Chunks(t *testing.T) {
	tokens := make([]string, 1203)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%d", i)
	}
	src := &fakeTokens{all: tokens}
	m := &fakeMessenger{failEach: 1}
	s := &Sender{client: m, tokens: src}

	res, err := s.Multicast(context.Background(), models.BroadcastRequest{Title: "Sale", Body: "50% off", Audience: types.AudienceDrivers})
	if err != nil {
		t.Fatalf("Multicast: %v", err)
	}
	if src.role != types.RoleDriver {
		t.Fatalf("role = %q", src.role)
	}
	if len(m.batches) != 3 || len(m.batches[0]) != 500 || len(m.batches[2]) != 203 {
		t.Fatalf("batches = %d", len(m.batches))
	}
	if res.Sent != 1200 || res.Failed != 3 {
		t.Fatalf("result = %+v", res)
	}
}

func TestNotConfigured(t *testing.T) {
	s, err := New(context.Background(), "", "", &fakeTokens{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Configured() {
		t.Fatal("expected unconfigured sender")
	}
	if _, err := s.Push(context.Background(), models.PushRequest{}); !errors.Is(err, types.ErrNotConfigured) {
		t.Fatalf("Push err = %v", err)
	}
	if _, err := s.Multicast(context.Background(), models.BroadcastRequest{}); !errors.Is(err, types.ErrNotConfigured) {
		t.Fatalf("Multicast err = %v", err)
	}
}
