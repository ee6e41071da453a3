package verification

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
	"github.com/hpyride/hpyride/pkg/validator"
)

type VerificationRepo interface {
	Create(ctx context.Context, v *models.Verification) error
	// FindLatestByUser returns types.ErrNotFound when the user never submitted.
	FindLatestByUser(ctx context.Context, userID uuid.UUID) (*models.Verification, error)
}

type VehicleRepo interface {
	// Create returns types.ErrVehicleExists on a duplicate registration number.
	Create(ctx context.Context, v *models.Vehicle) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Vehicle, error)
}

// Service accepts identity documents and vehicles for admin review.
type Service struct {
	verifications VerificationRepo
	vehicles      VehicleRepo
	log           logger.Logger
}

func NewService(verifications VerificationRepo, vehicles VehicleRepo, log logger.Logger) *Service {
	return &Service{verifications: verifications, vehicles: vehicles, log: log}
}

// Submit files a pending verification. A user with a pending or verified record cannot
// submit again; a rejected user may resubmit.
func (s *Service) Submit(ctx context.Context, userID uuid.UUID, documentURL string) (*models.Verification, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "submit_verification", UserID: userID.String()})

	documentURL = strings.TrimSpace(documentURL)
	if documentURL == "" {
		return nil, fmt.Errorf("%w: document_url is required", types.ErrInvalidInput)
	}

	latest, err := s.verifications.FindLatestByUser(ctx, userID)
	switch {
	case errors.Is(err, types.ErrNotFound):
	case err != nil:
		return nil, wrap.Error(ctx, err)
	case latest.Status == types.VerificationPending, latest.Status == types.VerificationVerified:
		return nil, wrap.Error(ctx, types.ErrAlreadySubmitted)
	}

	v := &models.Verification{
		UserID:      userID,
		Status:      types.VerificationPending,
		DocumentURL: documentURL,
	}
	if err := s.verifications.Create(ctx, v); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not store verification: %w", err))
	}

	s.log.Info(ctx, "verification submitted", "verification_id", v.ID.String())
	return v, nil
}

// Mine returns the latest record, or an unverified placeholder when there is none.
func (s *Service) Mine(ctx context.Context, userID uuid.UUID) (*models.Verification, error) {
	v, err := s.verifications.FindLatestByUser(ctx, userID)
	if errors.Is(err, types.ErrNotFound) {
		return &models.Verification{UserID: userID, Status: types.VerificationUnverified}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Service.Mine: %w", err)
	}
	return v, nil
}

func ValidateVehicle(v *validator.Validator, vehicle *models.Vehicle) {
	v.Check(vehicle.RegistrationNumber != "", "registration_number", "must be provided")
	v.Check(len(vehicle.RegistrationNumber) <= 16, "registration_number", "must not be more than 16 characters")
	v.Check(vehicle.Seats >= 1 && vehicle.Seats <= 8, "seats", "must be between 1 and 8")
}

// RegisterVehicle adds a pending vehicle owned by ownerID.
func (s *Service) RegisterVehicle(ctx context.Context, ownerID uuid.UUID, vehicle *models.Vehicle) (*models.Vehicle, error) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: "register_vehicle", UserID: ownerID.String()})

	vehicle.OwnerID = ownerID
	vehicle.RegistrationNumber = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(vehicle.RegistrationNumber), " ", ""))
	vehicle.Status = types.VerificationPending

	v := validator.New()
	if ValidateVehicle(v, vehicle); !v.Valid() {
		return nil, &ValidationError{Errors: v.Errors}
	}

	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "vehicle registered", "vehicle_id", vehicle.ID.String())
	return vehicle, nil
}

func (s *Service) ListVehicles(ctx context.Context, ownerID uuid.UUID) ([]models.Vehicle, error) {
	list, err := s.vehicles.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("Service.ListVehicles: %w", err)
	}
	return list, nil
}

// ValidationError carries field errors so handlers can answer 422.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func (e *ValidationError) Unwrap() error {
	return types.ErrInvalidInput
}
