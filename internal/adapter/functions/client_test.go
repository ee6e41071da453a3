package functions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
)

func TestPush(t *testing.T) {
	userID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/v1/send-push-notification" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get(ServiceKeyHeader) != "svc" {
			t.Errorf("service key = %q", r.Header.Get(ServiceKeyHeader))
		}
		if r.Header.Get(RequestIDHeader) != "req-1" {
			t.Errorf("request id = %q", r.Header.Get(RequestIDHeader))
		}
		var req models.PushRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.UserID != userID || req.Title != "hi" {
			t.Errorf("body = %+v", req)
		}
		w.Write([]byte(`{"success":true,"messageId":"m-1"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "svc", time.Second)
	ctx := wrap.WithRequestID(context.Background(), "req-1")

	res, err := c.Push(ctx, models.PushRequest{UserID: userID, Title: "hi", Body: "there"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if !res.Success || res.MessageID != "m-1" {
		t.Fatalf("result = %+v", res)
	}
}

func TestInvoke_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"provider not configured"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, "", time.Second).Invoke(context.Background(), "anything", struct{}{}, nil)
	if !errors.Is(err, ErrFunctionFailed) {
		t.Fatalf("err = %v, want ErrFunctionFailed", err)
	}
}
