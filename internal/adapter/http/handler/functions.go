package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/hpyride/hpyride/internal/adapter/http/handler/dto"
	"github.com/hpyride/hpyride/internal/domain/models"
	"github.com/hpyride/hpyride/internal/service/aichat"
	"github.com/hpyride/hpyride/internal/service/otp"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/hpyride/hpyride/pkg/validator"
)

// Function names served under /functions/v1/.
const (
	FnAdminData             = "admin-data"
	FnNavigationAIChat      = "navigation-ai-chat"
	FnSendPushNotification  = "send-push-notification"
	FnBroadcastNotification = "broadcast-notification"
	FnSendOTP               = "send-otp"
	FnVerifyOTP             = "verify-otp"
	FnVerifyPhoneEmail      = "verify-phone-email"
)

// ServiceKeyHeader carries the shared key of internal callers.
const ServiceKeyHeader = "X-Service-Key"

type (
	Authenticator interface {
		Authenticate(ctx context.Context, accessToken string) (*models.User, error)
	}

	ChatBot interface {
		Reply(ctx context.Context, messages []aichat.Message) (string, error)
	}

	Pusher interface {
		Push(ctx context.Context, req models.PushRequest) (models.PushResult, error)
	}

	Broadcaster interface {
		Broadcast(ctx context.Context, req models.BroadcastRequest) (models.BroadcastResult, error)
	}

	OTPService interface {
		Send(ctx context.Context, phone string) (status string, err error)
		Verify(ctx context.Context, phone, code string) (valid bool, err error)
		VerifyPhoneEmail(ctx context.Context, url string, userID uuid.UUID) (*otp.PhoneLink, error)
	}
)

// FunctionDeps are the services behind the functions.
type FunctionDeps struct {
	Users       Authenticator
	Admin       AdminService
	Bot         ChatBot
	Push        Pusher
	Broadcaster Broadcaster
	OTP         OTPService
	ServiceKey  string
}

// Functions serves POST /functions/v1/{name}. Each function authenticates its own caller.
type Functions struct {
	deps FunctionDeps
	l    logger.Logger
}

func NewFunctions(deps FunctionDeps, l logger.Logger) *Functions {
	return &Functions{
		deps: deps,
		l:    l,
	}
}

// Invoke godoc
// @Summary      Invoke a function by name
// @Description  admin-data, navigation-ai-chat, send-push-notification, broadcast-notification, send-otp, verify-otp, verify-phone-email
// @Tags         Functions
// @Accept       json
// @Produce      json
// @Param        name  path      string  true  "function name"
// @Success      200   {object}  map[string]any
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /functions/v1/{name} [post]
func (h *Functions) Invoke(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ctx := wrap.WithAction(r.Context(), "function_"+strings.ReplaceAll(name, "-", "_"))
	r = r.WithContext(ctx)

	switch name {
	case FnAdminData:
		h.adminData(w, r)
	case FnNavigationAIChat:
		h.navigationAIChat(w, r)
	case FnSendPushNotification:
		h.sendPushNotification(w, r)
	case FnBroadcastNotification:
		h.broadcastNotification(w, r)
	case FnSendOTP:
		h.sendOTP(w, r)
	case FnVerifyOTP:
		h.verifyOTP(w, r)
	case FnVerifyPhoneEmail:
		h.verifyPhoneEmail(w, r)
	default:
		errorResponse(w, http.StatusNotFound, "function not found")
	}
}

func (h *Functions) navigationAIChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := h.user(w, r)
	if !ok {
		return
	}
	ctx = wrap.WithUserID(ctx, user.ID.String())

	req := &dto.AIChatRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	reply, err := h.deps.Bot.Reply(ctx, req.Messages)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "navigation chat failed", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"reply": reply})
}

func (h *Functions) sendPushNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.isService(r) {
		if _, ok := h.user(w, r); !ok {
			return
		}
	}

	req := &dto.PushNotificationRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	ctx = wrap.WithUserID(ctx, req.UserID)
	res, err := h.deps.Push.Push(ctx, req.ToModel())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to queue push notification", err)
		serviceErrorResponse(w, err)
		return
	}

	h.respond(ctx, w, http.StatusOK, res)
}

func (h *Functions) broadcastNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.isService(r) {
		admin, ok := h.admin(w, r)
		if !ok {
			return
		}
		ctx = wrap.WithUserID(ctx, admin.ID.String())
	}

	req := &dto.BroadcastNotificationRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	res, err := h.deps.Broadcaster.Broadcast(ctx, req.ToModel())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to broadcast notification", err)
		serviceErrorResponse(w, err)
		return
	}

	h.respond(ctx, w, http.StatusOK, res)
}

func (h *Functions) sendOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := &dto.SendOTPRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	status, err := h.deps.OTP.Send(ctx, req.Phone)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to send otp", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"status": status})
}

func (h *Functions) verifyOTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := &dto.VerifyOTPRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	valid, err := h.deps.OTP.Verify(ctx, req.Phone, req.Code)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to verify otp", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	h.respond(ctx, w, http.StatusOK, envelope{"valid": valid})
}

func (h *Functions) verifyPhoneEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// the caller's account is linked when a token is present; otherwise the phone decides
	userID := uuid.Nil
	if token, ok := bearerToken(r); ok {
		user, err := h.deps.Users.Authenticate(ctx, token)
		if err != nil {
			errorResponse(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		userID = user.ID
		ctx = wrap.WithUserID(ctx, userID.String())
	}

	req := &dto.VerifyPhoneEmailRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	link, err := h.deps.OTP.VerifyPhoneEmail(ctx, req.URL, userID)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to verify phone.email link", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	h.respond(ctx, w, http.StatusOK, link)
}

// user authenticates a user access token. It writes the 401 itself.
func (h *Functions) user(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		unauthorizedResponse(w)
		return nil, false
	}

	user, err := h.deps.Users.Authenticate(r.Context(), token)
	if err != nil || user == nil {
		errorResponse(w, http.StatusUnauthorized, "invalid credentials")
		return nil, false
	}
	return user, true
}

// admin authorizes an admin session token. It writes the 401 itself.
func (h *Functions) admin(w http.ResponseWriter, r *http.Request) (*models.AdminUser, bool) {
	token, ok := bearerToken(r)
	if !ok {
		unauthorizedResponse(w)
		return nil, false
	}

	admin, err := h.deps.Admin.Authorize(r.Context(), token)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(r.Context(), err), "admin session rejected", "error", err.Error())
		errorResponse(w, GetCode(err), err.Error())
		return nil, false
	}
	return admin, true
}

func (h *Functions) isService(r *http.Request) bool {
	key := r.Header.Get(ServiceKeyHeader)
	if key == "" || h.deps.ServiceKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.deps.ServiceKey)) == 1
}

func (h *Functions) respond(ctx context.Context, w http.ResponseWriter, status int, data any) {
	if err := writeJSON(w, status, data, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}
