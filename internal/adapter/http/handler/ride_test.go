package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
)

type fakeRideService struct {
	RideService
	verified uuid.UUID
	search   models.RideSearch
}

func (f *fakeRideService) Create(_ context.Context, driver *models.User, ride *models.Ride) (*models.Ride, error) {
	if ride.VehicleID != f.verified {
		return nil, types.ErrVehicleNotVerified
	}
	ride.ID = uuid.New()
	ride.DriverID = driver.ID
	ride.SeatsAvailable = ride.SeatsTotal
	ride.Status = types.RideScheduled
	return ride, nil
}

func (f *fakeRideService) Search(_ context.Context, s models.RideSearch) ([]models.Ride, models.Metadata, error) {
	f.search = s
	return []models.Ride{}, models.Metadata{}, nil
}

func newRideMux(svc RideService, now time.Time) *http.ServeMux {
	h := NewRide(svc, logger.Discard())
	h.now = func() time.Time { return now }

	mux := http.NewServeMux()
	mux.HandleFunc("POST /rides", h.Create)
	mux.HandleFunc("GET /rides", h.Search)
	return mux
}

func TestRide_Create(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := &fakeRideService{verified: uuid.New()}
	mux := newRideMux(svc, now)
	driver := &models.User{ID: uuid.New(), Role: types.RoleDriver}

	body := func(vehicle string, departure time.Time, seats int) string {
		b, _ := json.Marshal(map[string]any{
			"vehicle_id":   vehicle,
			"origin":       "Koramangala",
			"destination":  "Airport",
			"departure_at": departure,
			"seats":        seats,
			"fare":         250,
		})
		return string(b)
	}

	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"created", body(svc.verified.String(), now.Add(time.Hour), 3), http.StatusCreated, ""},
		{"departure in the past", body(svc.verified.String(), now.Add(-time.Hour), 3), http.StatusUnprocessableEntity, "departure_at"},
		{"too many seats", body(svc.verified.String(), now.Add(time.Hour), 9), http.StatusUnprocessableEntity, "seats"},
		{"bad vehicle id", body("car-1", now.Add(time.Hour), 3), http.StatusUnprocessableEntity, "vehicle_id"},
		{"unverified vehicle", body(uuid.NewString(), now.Add(time.Hour), 3), http.StatusConflict, ""},
		{"malformed json", `{"seats":`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/rides", strings.NewReader(tt.body))
			req = req.WithContext(models.WithUser(req.Context(), driver))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}

			var out struct {
				Ride  models.Ride       `json:"ride"`
				Error map[string]string `json:"error"`
			}
			if tt.field != "" {
				if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if _, ok := out.Error[tt.field]; !ok {
					t.Errorf("missing field error %q in %v", tt.field, out.Error)
				}
			}
			if tt.status == http.StatusCreated {
				if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if loc := rec.Header().Get("Location"); loc != "/rides/"+out.Ride.ID.String() {
					t.Errorf("location = %q", loc)
				}
				if out.Ride.DriverID != driver.ID || out.Ride.SeatsAvailable != 3 {
					t.Errorf("ride = %+v", out.Ride)
				}
			}
		})
	}
}

func TestRide_Search(t *testing.T) {
	svc := &fakeRideService{}
	mux := newRideMux(svc, time.Now())

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"defaults", "", http.StatusOK},
		{"with date", "?origin=Kora&date=2026-03-02&seats=2", http.StatusOK},
		{"bad date", "?date=02/03/2026", http.StatusUnprocessableEntity},
		{"bad seats", "?seats=0", http.StatusUnprocessableEntity},
		{"unsafe sort", "?sort=password_hash", http.StatusUnprocessableEntity},
		{"page size too big", "?page_size=500", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rides"+tt.query, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	if svc.search.Origin != "Kora" || svc.search.MinSeats != 2 || svc.search.Date == nil {
		t.Errorf("search = %+v", svc.search)
	}
}
