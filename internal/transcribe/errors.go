package transcribe

import (
	"context"
	"errors"
	"fmt"

	"videoscribe/internal/device"
	"videoscribe/internal/engine"
	"videoscribe/internal/media"
	"videoscribe/internal/plan"
)

// Kind categorizes a pipeline failure for callers and for the JSON result
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindDeviceUnavailable Kind = "device_unavailable"
	KindMediaError        Kind = "media_error"
	KindEngineError       Kind = "engine_error"
	KindCancelled         Kind = "cancelled"
	KindTimeout           Kind = "timeout"
)

// Error is the single error type the pipeline surfaces to callers.
// Every failure carries exactly one Kind and wraps the underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// classify maps a lower-layer error onto a pipeline error kind.
// Context cancellation and deadline expiry take precedence over the
// typed errors so that an interrupted stage never reports as a stage
// failure. Errors that match no known type take the fallback kind.
func classify(err error, msg string, fallback Kind) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}

	kind := fallback
	switch {
	case errors.Is(err, context.Canceled):
		kind = KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.Is(err, plan.ErrInvalidDuration):
		kind = KindInvalidInput
	default:
		var unavailErr *device.UnavailableError
		var mediaErr *media.Error
		var engineErr *engine.Error
		switch {
		case errors.As(err, &unavailErr):
			kind = KindDeviceUnavailable
		case errors.As(err, &mediaErr):
			kind = KindMediaError
		case errors.As(err, &engineErr):
			kind = KindEngineError
		}
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}
