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

type VerificationService interface {
	Submit(ctx context.Context, userID uuid.UUID, documentURL string) (*models.Verification, error)
	Mine(ctx context.Context, userID uuid.UUID) (*models.Verification, error)
	RegisterVehicle(ctx context.Context, ownerID uuid.UUID, vehicle *models.Vehicle) (*models.Vehicle, error)
	ListVehicles(ctx context.Context, ownerID uuid.UUID) ([]models.Vehicle, error)
}

// Verification serves identity verification and vehicle registration.
type Verification struct {
	s VerificationService
	l logger.Logger
}

func NewVerification(s VerificationService, l logger.Logger) *Verification {
	return &Verification{
		s: s,
		l: l,
	}
}

// RegisterVehicle godoc
// @Summary      Register a vehicle for review
// @Tags         Vehicles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.VehicleRequest  true  "vehicle"
// @Success      201   {object}  map[string]any
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]any
// @Router       /vehicles [post]
func (h *Verification) RegisterVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register_vehicle")
	user := models.UserFromContext(ctx)

	req := &dto.VehicleRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	vehicle, err := h.s.RegisterVehicle(ctx, user.ID, req.ToModel())
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to register vehicle", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"vehicle": vehicle}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// ListVehicles godoc
// @Summary      Vehicles of the current user
// @Tags         Vehicles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /vehicles [get]
func (h *Verification) ListVehicles(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_vehicles")
	user := models.UserFromContext(ctx)

	vehicles, err := h.s.ListVehicles(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list vehicles", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"vehicles": vehicles}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Submit godoc
// @Summary      Submit an identity document for review
// @Tags         Verification
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.VerificationRequest  true  "document"
// @Success      201   {object}  map[string]any
// @Failure      409   {object}  map[string]string
// @Router       /verifications [post]
func (h *Verification) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "submit_verification")
	user := models.UserFromContext(ctx)

	req := &dto.VerificationRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	verification, err := h.s.Submit(ctx, user.ID, req.DocumentURL)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to submit verification", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"verification": verification}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// Mine godoc
// @Summary      Verification status of the current user
// @Tags         Verification
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]any
// @Router       /verifications/me [get]
func (h *Verification) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "my_verification")
	user := models.UserFromContext(ctx)

	verification, err := h.s.Mine(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to load verification", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"verification": verification}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}
