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

type NotificationService interface {
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, filters models.Filters) ([]models.Notification, models.Metadata, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	RegisterPushToken(ctx context.Context, userID uuid.UUID, token string) error
}

type Notification struct {
	s NotificationService
	l logger.Logger
}

func NewNotification(s NotificationService, l logger.Logger) *Notification {
	return &Notification{
		s: s,
		l: l,
	}
}

// newest first
var notificationSortSafelist = []string{"-created_at"}

// List godoc
// @Summary      Notifications of the current user, newest first
// @Tags         Notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread     query     bool  false  "only unread"
// @Param        page       query     int   false  "page"
// @Param        page_size  query     int   false  "page size"
// @Success      200        {object}  map[string]any
// @Router       /notifications [get]
func (h *Notification) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_notifications")
	user := models.UserFromContext(ctx)

	v := validator.New()
	unreadOnly := readBool(r.URL.Query(), "unread", v)
	filters := readFilters(r, v, notificationSortSafelist)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	list, metadata, err := h.s.ListForUser(ctx, user.ID, unreadOnly, filters)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list notifications", err)
		serviceErrorResponse(w, err)
		return
	}

	unread, err := h.s.UnreadCount(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to count unread notifications", err)
		serviceErrorResponse(w, err)
		return
	}

	response := envelope{
		"notifications": list,
		"unread_count":  unread,
		"metadata":      metadata,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// MarkRead godoc
// @Summary      Mark one notification read
// @Tags         Notifications
// @Security     BearerAuth
// @Param        id  path  string  true  "notification id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /notifications/{id}/read [post]
func (h *Notification) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "mark_notification_read")
	user := models.UserFromContext(ctx)

	id, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	if err := h.s.MarkRead(ctx, id, user.ID); err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to mark notification read", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead godoc
// @Summary      Mark every notification read
// @Tags         Notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int64
// @Router       /notifications/read-all [post]
func (h *Notification) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "mark_all_notifications_read")
	user := models.UserFromContext(ctx)

	n, err := h.s.MarkAllRead(ctx, user.ID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to mark notifications read", err)
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"updated": n}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// RegisterPushToken godoc
// @Summary      Store the device push token of the current user
// @Tags         Notifications
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  dto.PushTokenRequest  true  "token"
// @Success      204
// @Router       /me/push-token [put]
func (h *Notification) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "register_push_token")
	user := models.UserFromContext(ctx)

	req := &dto.PushTokenRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if dto.ValidatePushToken(v, req); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if err := h.s.RegisterPushToken(ctx, user.ID, req.Token); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to store push token", err)
		serviceErrorResponse(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
