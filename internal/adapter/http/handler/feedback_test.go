package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/hpyride/hpyride/internal/service/feedback"
	"github.com/hpyride/hpyride/pkg/logger"
)

func newFeedbackMux() *http.ServeMux {
	h := NewFeedback(feedback.NewPlayer(nil, nil, feedback.DefaultSampleRate, logger.Discard()), logger.Discard())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /feedback", h.Categories)
	mux.HandleFunc("GET /feedback/kinds/{kind}", h.ForKind)
	mux.HandleFunc("GET /feedback/{file}", h.Sound)
	return mux
}

func TestFeedback_Sound(t *testing.T) {
	mux := newFeedbackMux()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"known category", "/feedback/urgent.wav", http.StatusOK},
		{"unknown category", "/feedback/loud.wav", http.StatusNotFound},
		{"missing suffix", "/feedback/urgent", http.StatusNotFound},
		{"other suffix", "/feedback/urgent.mp3", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "audio/wav" {
				t.Errorf("content type = %q", ct)
			}
			body := rec.Body.Bytes()
			if len(body) < 44 || string(body[:4]) != "RIFF" {
				t.Fatalf("body is not a WAV file")
			}
			if rec.Header().Get("Content-Length") == "" || rec.Header().Get("Cache-Control") == "" {
				t.Errorf("missing caching headers: %v", rec.Header())
			}
		})
	}
}

func TestFeedback_ForKind(t *testing.T) {
	mux := newFeedbackMux()

	tests := []struct {
		kind string
		want feedback.Category
	}{
		{"driver_arrived", feedback.CategoryUrgent},
		{"booking_confirmed", feedback.CategorySuccess},
		{"something_new", feedback.CategoryDefault},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feedback/kinds/"+tt.kind, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}

			var got feedback.Pattern
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if want := feedback.PatternFor(tt.want); !reflect.DeepEqual(got, want) {
				t.Errorf("pattern = %+v, want %+v", got, want)
			}
		})
	}
}

func TestFeedback_Categories(t *testing.T) {
	mux := newFeedbackMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feedback", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Patterns []json.RawMessage `json:"patterns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Patterns) != len(feedback.Categories()) {
		t.Fatalf("patterns = %d, want %d", len(resp.Patterns), len(feedback.Categories()))
	}
}
