package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/adapter/http/handler/dto"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/validator"
)

type RideService interface {
	Create(ctx context.Context, driver *models.User, ride *models.Ride) (*models.Ride, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Ride, error)
	Search(ctx context.Context, search models.RideSearch) ([]models.Ride, models.Metadata, error)
	ListMine(ctx context.Context, driverID uuid.UUID, filters models.Filters) ([]models.Ride, models.Metadata, error)
	Cancel(ctx context.Context, driverID, rideID uuid.UUID, reason string) (*models.Ride, error)
	Complete(ctx context.Context, driverID, rideID uuid.UUID) (*models.Ride, error)
}

type Ride struct {
	s   RideService
	l   logger.Logger
	now func() time.Time
}

func NewRide(s RideService, l logger.Logger) *Ride {
	return &Ride{
		s:   s,
		l:   l,
		now: time.Now,
	}
}

var rideSortSafelist = []string{"departure_at", "-departure_at", "fare", "-fare", "created_at", "-created_at"}

// Create godoc
// @Summary      Post a ride
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateRideRequest  true  "ride"
// @Success      201   {object}  map[string]any
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]any
// @Router       /rides [post]
func (h *Ride) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_ride")
	driver := models.UserFromContext(ctx)

	req := &dto.CreateRideRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v, h.now())
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ride, err := h.s.Create(ctx, driver, req.ToModel())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create ride", err)
		serviceErrorResponse(w, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/rides/"+ride.ID.String())

	if err := writeJSON(w, http.StatusCreated, envelope{"ride": ride}, headers); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Search godoc
// @Summary      Search scheduled rides
// @Tags         Rides
// @Produce      json
// @Param        origin       query     string  false  "origin contains"
// @Param        destination  query     string  false  "destination contains"
// @Param        date         query     string  false  "departure date (YYYY-MM-DD)"
// @Param        seats        query     int     false  "minimum seats available"
// @Param        page         query     int     false  "page"
// @Param        page_size    query     int     false  "page size"
// @Param        sort         query     string  false  "sort key"
// @Success      200          {object}  map[string]any
// @Router       /rides [get]
func (h *Ride) Search(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "search_rides")

	v := validator.New()
	qs := r.URL.Query()

	search := models.RideSearch{
		Origin:      readString(qs, "origin", ""),
		Destination: readString(qs, "destination", ""),
		MinSeats:    readInt(qs, "seats", 1, v),
		Filters: models.Filters{
			Page:         readInt(qs, "page", 1, v),
			PageSize:     readInt(qs, "page_size", 20, v),
			Sort:         readString(qs, "sort", "departure_at"),
			SortSafelist: rideSortSafelist,
		},
	}
	if date := qs.Get("date"); date != "" {
		d, err := time.Parse(dto.DateLayout, date)
		if v.Check(err == nil, "date", "must be in YYYY-MM-DD format"); err == nil {
			search.Date = &d
		}
	}

	v.Check(validator.InRange(search.MinSeats, 1, 8), "seats", "must be between 1 and 8")
	search.Filters.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	rides, metadata, err := h.s.Search(ctx, search)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to search rides", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"rides": rides, "metadata": metadata}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Get godoc
// @Summary      Get a ride
// @Tags         Rides
// @Produce      json
// @Param        id   path      string  true  "ride id"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]string
// @Router       /rides/{id} [get]
func (h *Ride) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_ride")

	id, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	ride, err := h.s.Get(ctx, id)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to get ride", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// ListMine godoc
// @Summary      Rides posted by the current driver
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /rides/mine [get]
func (h *Ride) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_my_rides")
	driver := models.UserFromContext(ctx)

	v := validator.New()
	filters := readFilters(r, v, rideSortSafelist)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	rides, metadata, err := h.s.ListMine(ctx, driver.ID, filters)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list rides", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"rides": rides, "metadata": metadata}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Cancel godoc
// @Summary      Cancel a ride and its open bookings
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "ride id"
// @Param        body  body      dto.ReasonRequest  false  "reason"
// @Success      200   {object}  map[string]any
// @Router       /rides/{id}/cancel [post]
func (h *Ride) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "cancel_ride")
	driver := models.UserFromContext(ctx)

	id, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	req := &dto.ReasonRequest{}
	if r.ContentLength != 0 {
		if err := readJSON(w, r, req); err != nil {
			badRequestResponse(w, err.Error())
			return
		}
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ride, err := h.s.Cancel(ctx, driver.ID, id, req.Reason)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to cancel ride", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Complete godoc
// @Summary      Mark a ride completed
// @Tags         Rides
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "ride id"
// @Success      200  {object}  map[string]any
// @Router       /rides/{id}/complete [post]
func (h *Ride) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "complete_ride")
	driver := models.UserFromContext(ctx)

	id, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	ride, err := h.s.Complete(ctx, driver.ID, id)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to complete ride", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}
