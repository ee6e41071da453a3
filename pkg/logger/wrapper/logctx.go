package wrap

import (
	"context"
)

type (
	// LogCtx holds contextual information for logging
	LogCtx struct {
		Action    string
		UserID    string
		RequestID string
		BookingID string
		Channel   string
	}

	logCtxKeyStruct struct{}
)

// LogCtxKey is the context key for LogCtx values.
var LogCtxKey = &logCtxKeyStruct{}

func fromCtx(ctx context.Context) LogCtx {
	if lc, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
		return lc
	}
	return LogCtx{}
}

// WithLogCtx merges newLc into the LogCtx already stored in ctx. Empty fields keep the old value.
func WithLogCtx(ctx context.Context, newLc LogCtx) context.Context {
	lc := fromCtx(ctx)
	if newLc.Action == "" {
		newLc.Action = lc.Action
	}
	if newLc.UserID == "" {
		newLc.UserID = lc.UserID
	}
	if newLc.RequestID == "" {
		newLc.RequestID = lc.RequestID
	}
	if newLc.BookingID == "" {
		newLc.BookingID = lc.BookingID
	}
	if newLc.Channel == "" {
		newLc.Channel = lc.Channel
	}
	return context.WithValue(ctx, LogCtxKey, newLc)
}

// WithUserID adds or updates the UserID in the LogCtx within the context
func WithUserID(ctx context.Context, userID string) context.Context {
	lc := fromCtx(ctx)
	lc.UserID = userID
	return context.WithValue(ctx, LogCtxKey, lc)
}

// WithRequestID adds or updates the RequestID in the LogCtx within the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	lc := fromCtx(ctx)
	lc.RequestID = requestID
	return context.WithValue(ctx, LogCtxKey, lc)
}

// WithBookingID adds or updates the BookingID in the LogCtx within the context
func WithBookingID(ctx context.Context, bookingID string) context.Context {
	lc := fromCtx(ctx)
	lc.BookingID = bookingID
	return context.WithValue(ctx, LogCtxKey, lc)
}

// WithChannel adds or updates the realtime channel name in the LogCtx within the context
func WithChannel(ctx context.Context, channel string) context.Context {
	lc := fromCtx(ctx)
	lc.Channel = channel
	return context.WithValue(ctx, LogCtxKey, lc)
}

// WithAction adds or updates the Action in the LogCtx within the context
func WithAction(ctx context.Context, action string) context.Context {
	lc := fromCtx(ctx)
	lc.Action = action
	return context.WithValue(ctx, LogCtxKey, lc)
}

// RequestIDFrom returns the RequestID stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	return fromCtx(ctx).RequestID
}
