package dto

import (
	"net/url"

	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/pkg/validator"
)

type VehicleRequest struct {
	RegistrationNumber string `json:"registration_number"`
	Make               string `json:"make,omitempty"`
	Model              string `json:"model,omitempty"`
	Seats              int    `json:"seats"`
}

func (r *VehicleRequest) Validate(v *validator.Validator) {
	v.Check(r.RegistrationNumber != "", "registration_number", "must be provided")
	v.Check(validator.MaxChars(r.Make, 100), "make", "must not be more than 100 characters")
	v.Check(validator.MaxChars(r.Model, 100), "model", "must not be more than 100 characters")
}

func (r *VehicleRequest) ToModel() *models.Vehicle {
	return &models.Vehicle{
		RegistrationNumber: r.RegistrationNumber,
		Make:               r.Make,
		Model:              r.Model,
		Seats:              r.Seats,
	}
}

type VerificationRequest struct {
	DocumentURL string `json:"document_url"`
}

func (r *VerificationRequest) Validate(v *validator.Validator) {
	u, err := url.Parse(r.DocumentURL)
	v.Check(r.DocumentURL != "", "document_url", "must be provided")
	v.Check(err == nil && (u.Scheme == "https" || u.Scheme == "http") && u.Host != "", "document_url", "must be an absolute http(s) url")
}
