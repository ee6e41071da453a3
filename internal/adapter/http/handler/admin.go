package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/adapter/http/handler/dto"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/internal/service/admin"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/validator"
)

type AdminService interface {
	Login(ctx context.Context, email, password string) (*models.AdminSession, error)
	Logout(ctx context.Context, token string) error
	Authorize(ctx context.Context, token string) (*models.AdminUser, error)
	ListVerifications(ctx context.Context, status types.VerificationStatus, filters models.Filters) ([]models.Verification, models.Metadata, error)
	ReviewVerification(ctx context.Context, admin *models.AdminUser, id uuid.UUID, approve bool, reason string) (*models.Verification, error)
	ListVehicles(ctx context.Context, status types.VerificationStatus, filters models.Filters) ([]models.Vehicle, models.Metadata, error)
	ReviewVehicle(ctx context.Context, admin *models.AdminUser, id uuid.UUID, approve bool, reason string) (*models.Vehicle, error)
	ListUsers(ctx context.Context, role types.UserRole, filters models.Filters) ([]models.User, models.Metadata, error)
	GetOverview(ctx context.Context) (*models.Overview, error)
}

var (
	reviewSortSafelist = []string{"-created_at", "created_at", "-updated_at", "updated_at"}
	userSortSafelist   = []string{"-created_at", "created_at", "name", "-name", "email", "-email"}
)

// adminData serves the admin-data function. login is the only action without a session.
func (h *Functions) adminData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := &dto.AdminDataRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithAction(ctx, "admin_"+req.Action)

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if req.Action == dto.AdminLogin {
		session, err := h.deps.Admin.Login(ctx, req.Email, req.Password)
		if err != nil {
			h.l.Warn(wrap.ErrorCtx(ctx, err), "admin login failed", "error", err.Error())
			serviceErrorResponse(w, err)
			return
		}
		h.respond(ctx, w, http.StatusOK, envelope{
			"token":      session.Token,
			"adminUser":  session.AdminUser,
			"expires_at": session.ExpiresAt,
		})
		return
	}

	adminUser, ok := h.admin(w, r)
	if !ok {
		return
	}
	ctx = wrap.WithUserID(ctx, adminUser.ID.String())

	data, err := h.adminAction(ctx, r, adminUser, req)
	if err != nil {
		if vErr, ok := err.(validationError); ok {
			failedValidationResponse(w, vErr)
			return
		}
		h.l.Error(wrap.ErrorCtx(ctx, err), "admin action failed", err)
		serviceErrorResponse(w, err)
		return
	}

	h.respond(ctx, w, http.StatusOK, data)
}

// validationError carries field errors of list filters out of adminAction.
type validationError map[string]string

func (e validationError) Error() string { return "validation failed" }

func (h *Functions) adminAction(ctx context.Context, r *http.Request, adminUser *models.AdminUser, req *dto.AdminDataRequest) (any, error) {
	s := h.deps.Admin

	list := func(safelist []string) (models.Filters, error) {
		f := req.Filters(safelist)
		v := validator.New()
		if f.Validate(v); !v.Valid() {
			return f, validationError(v.Errors)
		}
		return f, nil
	}

	switch req.Action {
	case dto.AdminLogout:
		token, _ := bearerToken(r)
		if err := s.Logout(ctx, token); err != nil {
			return nil, err
		}
		return envelope{"success": true}, nil

	case dto.AdminOverview:
		return s.GetOverview(ctx)

	case dto.AdminListVerifications:
		f, err := list(reviewSortSafelist)
		if err != nil {
			return nil, err
		}
		items, meta, err := s.ListVerifications(ctx, types.VerificationStatus(req.Status), f)
		if err != nil {
			return nil, err
		}
		return envelope{"verifications": items, "metadata": meta}, nil

	case dto.AdminReviewVerification:
		item, err := s.ReviewVerification(ctx, adminUser, uuid.MustParse(req.ID), *req.Approve, req.Reason)
		if err != nil {
			return nil, err
		}
		return envelope{"verification": item}, nil

	case dto.AdminListVehicles:
		f, err := list(reviewSortSafelist)
		if err != nil {
			return nil, err
		}
		items, meta, err := s.ListVehicles(ctx, types.VerificationStatus(req.Status), f)
		if err != nil {
			return nil, err
		}
		return envelope{"vehicles": items, "metadata": meta}, nil

	case dto.AdminReviewVehicle:
		item, err := s.ReviewVehicle(ctx, adminUser, uuid.MustParse(req.ID), *req.Approve, req.Reason)
		if err != nil {
			return nil, err
		}
		return envelope{"vehicle": item}, nil

	case dto.AdminListUsers:
		f, err := list(userSortSafelist)
		if err != nil {
			return nil, err
		}
		items, meta, err := s.ListUsers(ctx, types.UserRole(req.Role), f)
		if err != nil {
			return nil, err
		}
		return envelope{"users": items, "metadata": meta}, nil
	}

	return nil, admin.ErrUnknownAction
}
