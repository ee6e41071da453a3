package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/adapter/http/handler/dto"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/validator"
)

type BookingService interface {
	Request(ctx context.Context, rider *models.User, rideID uuid.UUID, seats int) (*models.Booking, error)
	Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.Booking, error)
	ListMine(ctx context.Context, userID uuid.UUID, filters models.Filters) ([]models.Booking, models.Metadata, error)
	Confirm(ctx context.Context, driver *models.User, id uuid.UUID) (*models.Booking, error)
	Reject(ctx context.Context, driver *models.User, id uuid.UUID, reason string) (*models.Booking, error)
	Arrive(ctx context.Context, driver *models.User, id uuid.UUID) (*models.Booking, error)
	Start(ctx context.Context, driver *models.User, id uuid.UUID) (*models.Booking, error)
	Complete(ctx context.Context, driver *models.User, id uuid.UUID) (*models.Booking, error)
	Cancel(ctx context.Context, user *models.User, id uuid.UUID, reason string) (*models.Booking, error)
	Rate(ctx context.Context, user *models.User, id uuid.UUID, stars int, comment string) (*models.Rating, error)
}

type Booking struct {
	s BookingService
	l logger.Logger
}

func NewBooking(s BookingService, l logger.Logger) *Booking {
	return &Booking{
		s: s,
		l: l,
	}
}

var bookingSortSafelist = []string{"-created_at", "created_at", "-updated_at", "updated_at"}

// Request godoc
// @Summary      Request seats on a ride
// @Tags         Bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.BookingRequest  true  "booking"
// @Success      201   {object}  map[string]any
// @Failure      409   {object}  map[string]string
// @Router       /bookings [post]
func (h *Booking) Request(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "request_booking")
	rider := models.UserFromContext(ctx)

	req := &dto.BookingRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	booking, err := h.s.Request(ctx, rider, uuid.MustParse(req.RideID), req.Seats)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to request booking", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/bookings/"+booking.ID.String())

	if err := writeJSON(w, http.StatusCreated, envelope{"booking": booking}, headers); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// ListMine godoc
// @Summary      Bookings where the current user is rider or driver
// @Tags         Bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /bookings [get]
func (h *Booking) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_my_bookings")
	user := models.UserFromContext(ctx)

	v := validator.New()
	filters := readFilters(r, v, bookingSortSafelist)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	bookings, metadata, err := h.s.ListMine(ctx, user.ID, filters)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list bookings", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"bookings": bookings, "metadata": metadata}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Get godoc
// @Summary      Get a booking
// @Tags         Bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "booking id"
// @Success      200  {object}  map[string]any
// @Router       /bookings/{id} [get]
func (h *Booking) Get(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "get_booking", func(ctx context.Context, user *models.User, id uuid.UUID) (*models.Booking, error) {
		return h.s.Get(ctx, user, id)
	})
}

// Confirm godoc
// @Summary      Accept a booking request
// @Tags         Bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "booking id"
// @Success      200  {object}  map[string]any
// @Failure      409  {object}  map[string]string
// @Router       /bookings/{id}/confirm [post]
func (h *Booking) Confirm(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "confirm_booking", h.s.Confirm)
}

// Arrive godoc
// @Summary      Tell the rider the driver is at the pickup point
// @Tags         Bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "booking id"
// @Success      200  {object}  map[string]any
// @Router       /bookings/{id}/arrive [post]
func (h *Booking) Arrive(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "driver_arrived", h.s.Arrive)
}

// Start godoc
// @Summary      Start the trip
// @Tags         Bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "booking id"
// @Success      200  {object}  map[string]any
// @Router       /bookings/{id}/start [post]
func (h *Booking) Start(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "start_trip", h.s.Start)
}

// Complete godoc
// @Summary      Complete the trip
// @Tags         Bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "booking id"
// @Success      200  {object}  map[string]any
// @Router       /bookings/{id}/complete [post]
func (h *Booking) Complete(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, "complete_trip", h.s.Complete)
}

// Reject godoc
// @Summary      Decline a booking request
// @Tags         Bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "booking id"
// @Param        body  body      dto.ReasonRequest  false  "reason"
// @Success      200   {object}  map[string]any
// @Router       /bookings/{id}/reject [post]
func (h *Booking) Reject(w http.ResponseWriter, r *http.Request) {
	h.applyWithReason(w, r, "reject_booking", h.s.Reject)
}

// Cancel godoc
// @Summary      Cancel a booking
// @Tags         Bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true   "booking id"
// @Param        body  body      dto.ReasonRequest  false  "reason"
// @Success      200   {object}  map[string]any
// @Router       /bookings/{id}/cancel [post]
func (h *Booking) Cancel(w http.ResponseWriter, r *http.Request) {
	h.applyWithReason(w, r, "cancel_booking", h.s.Cancel)
}

// Rate godoc
// @Summary      Rate the other participant of a completed booking
// @Tags         Bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "booking id"
// @Param        body  body      dto.RatingRequest  true  "rating"
// @Success      201   {object}  map[string]any
// @Failure      409   {object}  map[string]string
// @Router       /bookings/{id}/rating [post]
func (h *Booking) Rate(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "rate_booking")
	user := models.UserFromContext(ctx)

	id, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithBookingID(ctx, id.String())

	req := &dto.RatingRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	rating, err := h.s.Rate(ctx, user, id, req.Stars, req.Comment)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to rate booking", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"rating": rating}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

type bookingAction func(ctx context.Context, user *models.User, id uuid.UUID) (*models.Booking, error)

// apply runs a body-less booking action on the {id} path value.
func (h *Booking) apply(w http.ResponseWriter, r *http.Request, action string, fn bookingAction) {
	ctx := wrap.WithAction(r.Context(), action)
	user := models.UserFromContext(ctx)

	id, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithBookingID(ctx, id.String())

	booking, err := fn(ctx, user, id)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "booking action failed", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"booking": booking}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// applyWithReason is apply for actions taking an optional {"reason"} body.
func (h *Booking) applyWithReason(w http.ResponseWriter, r *http.Request, action string,
	fn func(ctx context.Context, user *models.User, id uuid.UUID, reason string) (*models.Booking, error),
) {
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

	h.apply(w, r, action, func(ctx context.Context, user *models.User, id uuid.UUID) (*models.Booking, error) {
		return fn(ctx, user, id, req.Reason)
	})
}
