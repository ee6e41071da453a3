package dto

import (
	"strings"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/aichat"
	"github.com/hpyride/hpyride/pkg/validator"
)

// Admin actions accepted by the admin-data function.
const (
	AdminLogin              = "login"
	AdminLogout             = "logout"
	AdminListVerifications  = "list_verifications"
	AdminReviewVerification = "review_verification"
	AdminListVehicles       = "list_vehicles"
	AdminReviewVehicle      = "review_vehicle"
	AdminListUsers          = "list_users"
	AdminOverview           = "overview"
)

// AdminDataRequest is the body of admin-data. Fields beyond action depend on the action.
type AdminDataRequest struct {
	Action string `json:"action"`

	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`

	ID      string `json:"id,omitempty"`
	Approve *bool  `json:"approve,omitempty"`
	Reason  string `json:"reason,omitempty"`

	Status   string `json:"status,omitempty"`
	Role     string `json:"role,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
	Sort     string `json:"sort,omitempty"`
}

func (r *AdminDataRequest) Validate(v *validator.Validator) {
	switch r.Action {
	case AdminLogin:
		v.Check(r.Email != "", "email", "must be provided")
		v.Check(r.Password != "", "password", "must be provided")
	case AdminReviewVerification, AdminReviewVehicle:
		_, err := uuid.Parse(r.ID)
		v.Check(err == nil, "id", "must be a valid uuid")
		v.Check(r.Approve != nil, "approve", "must be provided")
		v.Check(validator.MaxChars(r.Reason, 500), "reason", "must not be more than 500 characters")
	case AdminListVerifications, AdminListVehicles:
		if r.Status != "" {
			v.Check(validator.PermittedValue(types.VerificationStatus(r.Status),
				types.VerificationPending, types.VerificationVerified, types.VerificationRejected),
				"status", "must be pending, verified or rejected")
		}
	case AdminListUsers:
		if r.Role != "" {
			v.Check(validator.PermittedValue(types.UserRole(r.Role), types.RoleRider, types.RoleDriver, types.RoleAdmin),
				"role", "must be RIDER, DRIVER or ADMIN")
		}
	}
}

// Filters returns the pagination of a list action.
func (r *AdminDataRequest) Filters(sortSafelist []string) models.Filters {
	f := models.DefaultFilters(sortSafelist...)
	if r.Page != 0 {
		f.Page = r.Page
	}
	if r.PageSize != 0 {
		f.PageSize = r.PageSize
	}
	if r.Sort != "" {
		f.Sort = r.Sort
	}
	return f
}

type AIChatRequest struct {
	Messages []aichat.Message `json:"messages"`
}

func (r *AIChatRequest) Validate(v *validator.Validator) {
	v.Check(len(r.Messages) > 0, "messages", "must be provided")
	v.Check(len(r.Messages) <= 50, "messages", "must not contain more than 50 messages")
	for _, m := range r.Messages {
		v.Check(validator.PermittedValue(m.Role, aichat.RoleUser, aichat.RoleAssistant), "messages", "role must be user or assistant")
		v.Check(validator.MaxChars(m.Content, 2000), "messages", "content must not be more than 2000 characters")
	}
}

type PushNotificationRequest struct {
	UserID string            `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

func (r *PushNotificationRequest) Validate(v *validator.Validator) {
	_, err := uuid.Parse(r.UserID)
	v.Check(err == nil, "userId", "must be a valid uuid")
	v.Check(strings.TrimSpace(r.Title) != "", "title", "must be provided")
	v.Check(validator.MaxChars(r.Title, 200), "title", "must not be more than 200 characters")
	v.Check(validator.MaxChars(r.Body, 2000), "body", "must not be more than 2000 characters")
}

func (r *PushNotificationRequest) ToModel() models.PushRequest {
	return models.PushRequest{
		UserID: uuid.MustParse(r.UserID),
		Title:  r.Title,
		Body:   r.Body,
		Data:   r.Data,
	}
}

type BroadcastNotificationRequest struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Audience string `json:"audience"`
}

func (r *BroadcastNotificationRequest) Validate(v *validator.Validator) {
	v.Check(strings.TrimSpace(r.Title) != "", "title", "must be provided")
	v.Check(validator.MaxChars(r.Title, 200), "title", "must not be more than 200 characters")
	v.Check(strings.TrimSpace(r.Body) != "", "body", "must be provided")
	v.Check(validator.MaxChars(r.Body, 2000), "body", "must not be more than 2000 characters")
	v.Check(types.Audience(r.Audience).Valid(), "audience", "must be all, riders or drivers")
}

func (r *BroadcastNotificationRequest) ToModel() models.BroadcastRequest {
	return models.BroadcastRequest{
		Title:    r.Title,
		Body:     r.Body,
		Audience: types.Audience(r.Audience),
	}
}

type SendOTPRequest struct {
	Phone string `json:"phone"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type VerifyPhoneEmailRequest struct {
	URL string `json:"url"`
}
