package hostfuncs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nom-cli/plugin-sdk/domain/entities"
)

// Callback is a host-supplied function invoked with one envelope-encoded payload.
type Callback func(ctx context.Context, payload string) error

// Middleware wraps a Callback to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next Callback) Callback

// Chain applies middleware so the first element wraps outermost.
func Chain(cb Callback, mw ...Middleware) Callback {
	for i := len(mw) - 1; i >= 0; i-- {
		cb = mw[i](cb)
	}
	return cb
}

// PanicRecoveryMiddleware returns a middleware that converts a panicking
// callback into an error so the panic never unwinds into the plugin.
func PanicRecoveryMiddleware() Middleware {
	return func(next Callback) Callback {
		return func(ctx context.Context, payload string) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("callback panic: %v", r)
				}
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware returns a middleware that logs every callback invocation
// at debug level with the owning handle.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Callback) Callback {
		return func(ctx context.Context, payload string) error {
			handle := HandleFrom(ctx)
			logger.DebugContext(ctx, "firing callback", "handle", handle, "bytes", len(payload))
			err := next(ctx, payload)
			if err != nil {
				logger.DebugContext(ctx, "callback returned error", "handle", handle, "error", err)
			}
			return err
		}
	}
}

type handleKey struct{}

// WithHandle returns a context carrying the handle whose callback is firing.
func WithHandle(ctx context.Context, h entities.Handle) context.Context {
	return context.WithValue(ctx, handleKey{}, h)
}

// HandleFrom returns the handle stored by WithHandle, or the zero handle.
func HandleFrom(ctx context.Context) entities.Handle {
	h, _ := ctx.Value(handleKey{}).(entities.Handle)
	return h
}
