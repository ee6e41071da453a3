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

type ChatService interface {
	Send(ctx context.Context, sender *models.User, bookingID uuid.UUID, text string) (*models.ChatMessage, error)
	History(ctx context.Context, user *models.User, bookingID uuid.UUID, filters models.Filters) ([]models.ChatMessage, models.Metadata, error)
	SendListing(ctx context.Context, sender *models.User, listingID, recipientID uuid.UUID, text string) (*models.CarChatMessage, error)
	ListingHistory(ctx context.Context, user *models.User, listingID uuid.UUID, filters models.Filters) ([]models.CarChatMessage, models.Metadata, error)
}

type Chat struct {
	s ChatService
	l logger.Logger
}

func NewChat(s ChatService, l logger.Logger) *Chat {
	return &Chat{
		s: s,
		l: l,
	}
}

// history is always oldest first
var chatSortSafelist = []string{"created_at"}

// Send godoc
// @Summary      Send a booking chat message
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                  true  "booking id"
// @Param        body  body      dto.ChatMessageRequest  true  "message"
// @Success      201   {object}  map[string]any
// @Router       /bookings/{id}/messages [post]
func (h *Chat) Send(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "send_chat_message")
	user := models.UserFromContext(ctx)

	bookingID, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	ctx = wrap.WithBookingID(ctx, bookingID.String())

	req := &dto.ChatMessageRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	msg, err := h.s.Send(ctx, user, bookingID, req.Text)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to send chat message", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"message": msg}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// History godoc
// @Summary      Booking chat history
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "booking id"
// @Success      200  {object}  map[string]any
// @Router       /bookings/{id}/messages [get]
func (h *Chat) History(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "chat_history")
	user := models.UserFromContext(ctx)

	bookingID, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	filters := readFilters(r, v, chatSortSafelist)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	messages, metadata, err := h.s.History(ctx, user, bookingID, filters)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to load chat history", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"messages": messages, "metadata": metadata}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// SendListing godoc
// @Summary      Message about a ride listing
// @Tags         Chat
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                     true  "listing id"
// @Param        body  body      dto.ListingMessageRequest  true  "message"
// @Success      201   {object}  map[string]any
// @Router       /listings/{id}/messages [post]
func (h *Chat) SendListing(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "send_listing_message")
	user := models.UserFromContext(ctx)

	listingID, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	req := &dto.ListingMessageRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	if req.Validate(v); !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	msg, err := h.s.SendListing(ctx, user, listingID, req.Recipient(), req.Text)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to send listing message", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, envelope{"message": msg}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}

// ListingHistory godoc
// @Summary      Listing chat history of the current user
// @Tags         Chat
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "listing id"
// @Success      200  {object}  map[string]any
// @Router       /listings/{id}/messages [get]
func (h *Chat) ListingHistory(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "listing_chat_history")
	user := models.UserFromContext(ctx)

	listingID, err := readIDParam(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	filters := readFilters(r, v, chatSortSafelist)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	messages, metadata, err := h.s.ListingHistory(ctx, user, listingID, filters)
	if err != nil {
		h.l.Warn(wrap.ErrorCtx(ctx, err), "failed to load listing history", "error", err.Error())
		serviceErrorResponse(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"messages": messages, "metadata": metadata}, nil); err != nil {
		h.l.Error(ctx, "failed to write response", err)
		internalErrorResponse(w, "failed to write JSON response")
	}
}
