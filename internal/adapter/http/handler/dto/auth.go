package dto

import (
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/validator"
)

type RegisterUserRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (r *RegisterUserRequest) ToModel() *models.UserCreateRequest {
	return &models.UserCreateRequest{
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		Password: r.Password,
		Role:     types.UserRole(r.Role),
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PushTokenRequest struct {
	Token string `json:"token"`
}

func ValidateNewUser(v *validator.Validator, user *RegisterUserRequest) {
	v.Check(user.Name != "", "name", "must be provided")
	v.Check(len(user.Name) <= 500, "name", "must not be more than 500 bytes long")

	v.Check(user.Email != "", "email", "must be provided")
	v.Check(validator.Matches(user.Email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(len(user.Email) <= 500, "email", "must not be more than 500 bytes long")

	if user.Phone != "" {
		v.Check(validator.Matches(user.Phone, validator.E164RX), "phone", "must be in E.164 format")
	}
	if user.Role != "" {
		v.Check(validator.PermittedValue(types.UserRole(user.Role), types.RoleRider, types.RoleDriver), "role", "must be RIDER or DRIVER")
	}

	v.Check(user.Password != "", "password", "must be provided")
	v.Check(len(user.Password) >= 8, "password", "must be at least 8 bytes long")
	v.Check(len(user.Password) <= 50, "password", "must not be more than 50 bytes long")
}

func ValidateLogin(v *validator.Validator, user *LoginRequest) {
	v.Check(user.Email != "", "email", "must be provided")
	v.Check(user.Password != "", "password", "must be provided")
}

func ValidateRefreshToken(v *validator.Validator, req *RefreshTokenRequest) {
	v.Check(req.RefreshToken != "", "refresh_token", "must be provided")
}

func ValidatePushToken(v *validator.Validator, req *PushTokenRequest) {
	v.Check(req.Token != "", "token", "must be provided")
	v.Check(len(req.Token) <= 4096, "token", "must not be more than 4096 bytes long")
}
