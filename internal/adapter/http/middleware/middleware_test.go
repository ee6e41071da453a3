package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
)

type fakeAuth struct {
	tokens map[string]*models.User
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := f.tokens[token]; ok {
		return u, nil
	}
	return nil, errors.New("token is not valid")
}

// whoami answers with the role of the user in the context.
func whoami(w http.ResponseWriter, r *http.Request) {
	u := models.UserFromContext(r.Context())
	switch {
	case u == nil:
		w.Write([]byte("none"))
	case u.IsAnonymous():
		w.Write([]byte("anonymous"))
	default:
		w.Write([]byte(u.Role))
	}
}

func TestAuth(t *testing.T) {
	driver := &models.User{ID: uuid.New(), Role: types.RoleDriver}
	m := NewMiddleware(&fakeAuth{tokens: map[string]*models.User{"good": driver}}, logger.Discard())
	h := m.Auth(http.HandlerFunc(whoami))

	tests := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{name: "no token", status: http.StatusOK, body: "anonymous"},
		{name: "bearer header", header: "Bearer good", status: http.StatusOK, body: "DRIVER"},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusOK, body: "DRIVER"},
		{name: "query token", query: "?access_token=good", status: http.StatusOK, body: "DRIVER"},
		{name: "invalid token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "invalid query token", query: "?access_token=bad", status: http.StatusUnauthorized},
		{name: "malformed header", header: "Token good", status: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws/drivers/x"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("user = %q, want %q", rec.Body.String(), tt.body)
			}
		})
	}
}

func TestAuth_WithoutAuthService(t *testing.T) {
	m := NewMiddleware(nil, logger.Discard())
	h := m.Auth(http.HandlerFunc(whoami))

	req := httptest.NewRequest(http.MethodGet, "/functions/v1/send-otp", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequireRoles(t *testing.T) {
	m := NewMiddleware(nil, logger.Discard())
	h := m.RequireRoles(whoami, types.RoleDriver)

	tests := []struct {
		name   string
		user   *models.User
		status int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"anonymous", models.AnonymousUser(), http.StatusUnauthorized},
		{"rider", &models.User{ID: uuid.New(), Role: types.RoleRider}, http.StatusForbidden},
		{"driver", &models.User{ID: uuid.New(), Role: types.RoleDriver}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/rides", nil)
			if tt.user != nil {
				req = req.WithContext(models.WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestRequireRoles_AnyAuthenticated(t *testing.T) {
	h := NewMiddleware(nil, logger.Discard()).RequireRoles(whoami)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req = req.WithContext(models.WithUser(req.Context(), &models.User{ID: uuid.New(), Role: types.RoleAdmin}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	m := NewMiddleware(nil, logger.Discard())
	h := m.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	t.Run("reuses a well-formed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "req-42.a_b")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "req-42.a_b" {
			t.Fatalf("request id = %q", got)
		}
	})

	t.Run("replaces a malformed id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "bad id\n"+strings.Repeat("x", 80))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
			t.Fatalf("expected a generated uuid, got %q", rec.Header().Get(RequestIDHeader))
		}
	})

	t.Run("generates a missing id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
			t.Fatalf("expected a generated uuid, got %q", rec.Header().Get(RequestIDHeader))
		}
	})
}

func TestRoute_ReportsPattern(t *testing.T) {
	m := NewMiddleware(nil, logger.Discard())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rides/{id}", func(w http.ResponseWriter, r *http.Request) {})

	var pattern string
	outer := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, rt := withRoute(r)
			next.ServeHTTP(w, r)
			pattern = rt.pattern
		})
	}

	h := outer(m.Route(mux))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rides/"+uuid.NewString(), nil))
	if pattern != "GET /rides/{id}" {
		t.Fatalf("pattern = %q", pattern)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if pattern != "" {
		t.Fatalf("unmatched pattern = %q", pattern)
	}
}

func TestRecover(t *testing.T) {
	m := NewMiddleware(nil, logger.Discard())
	h := m.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rides", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Connection") != "close" {
		t.Errorf("connection header not set")
	}
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newStatusRecorder(rec)
	rw.WriteHeader(http.StatusTeapot)

	if rw.status != http.StatusTeapot || rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, recorded %d", rw.status, rec.Code)
	}
	if _, _, err := rw.Hijack(); !errors.Is(err, http.ErrNotSupported) {
		t.Fatalf("hijack err = %v", err)
	}
}
