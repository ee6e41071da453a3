package wrap

import (
	"context"
	"errors"
)

// errorWithLogCtx carries the LogCtx that was active where the error happened.
type errorWithLogCtx struct {
	err    error
	logCtx LogCtx
}

func (e *errorWithLogCtx) Error() string {
	return e.err.Error()
}

func (e *errorWithLogCtx) Unwrap() error {
	return e.err
}

// Error attaches the LogCtx of ctx to err. Returns nil for a nil err.
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	lc := fromCtx(ctx)

	var e *errorWithLogCtx
	if errors.As(err, &e) {
		// keep the innermost fields that the outer ctx does not know about
		lc = merge(lc, e.logCtx)
	}

	return &errorWithLogCtx{
		err:    err,
		logCtx: lc,
	}
}

// ErrorCtx returns ctx enriched with the LogCtx stored in err, if any.
func ErrorCtx(ctx context.Context, err error) context.Context {
	var e *errorWithLogCtx
	if errors.As(err, &e) && e != nil {
		return context.WithValue(ctx, LogCtxKey, merge(e.logCtx, fromCtx(ctx)))
	}
	return ctx
}

func merge(primary, fallback LogCtx) LogCtx {
	if primary.Action == "" {
		primary.Action = fallback.Action
	}
	if primary.UserID == "" {
		primary.UserID = fallback.UserID
	}
	if primary.RequestID == "" {
		primary.RequestID = fallback.RequestID
	}
	if primary.BookingID == "" {
		primary.BookingID = fallback.BookingID
	}
	if primary.Channel == "" {
		primary.Channel = fallback.Channel
	}
	return primary
}
