package dispatcher

import (
	"context"
	"strings"
)

// HandlerFunc is invoked with the arguments passed to Dispatch. The boolean result
// claims the event; it is only consulted for handlers registered with a priority.
type HandlerFunc func(ctx context.Context, args ...any) (bool, error)

// Handler wraps a HandlerFunc with a stable identity. Registration and removal match
// on the *Handler pointer, so keep the value returned by NewHandler around.
type Handler struct {
	name string
	fn   HandlerFunc
}

// NewHandler builds a handler. name is optional; a name of the form on_<event> lets
// Register derive the event name when none is given.
func NewHandler(name string, fn HandlerFunc) *Handler {
	return &Handler{name: name, fn: fn}
}

// Listener builds a handler that never claims the event.
func Listener(name string, fn func(ctx context.Context, args ...any) error) *Handler {
	return NewHandler(name, func(ctx context.Context, args ...any) (bool, error) {
		return false, fn(ctx, args...)
	})
}

// Name returns the declared handler name.
func (h *Handler) Name() string {
	if h == nil {
		return ""
	}
	return h.name
}

// Call invokes the wrapped function.
func (h *Handler) Call(ctx context.Context, args ...any) (bool, error) {
	return h.fn(ctx, args...)
}

// Nonblocking returns a handler that starts h in its own goroutine and returns false
// immediately, so a priority slot can kick off work without claiming the event.
// Errors from h are reported to onError when it is non-nil.
//
// h outlives the dispatch, so it gets ctx without its cancellation.
func Nonblocking(h *Handler, onError func(error)) *Handler {
	return NewHandler(h.name, func(ctx context.Context, args ...any) (bool, error) {
		event := EventName(ctx)
		detached := context.WithoutCancel(ctx)
		go func() {
			if _, err := invoke(detached, event, h, args); err != nil && onError != nil {
				onError(err)
			}
		}()
		return false, nil
	})
}

type eventKey struct{}

// EventName returns the event being dispatched on ctx, or "" outside a dispatch.
func EventName(ctx context.Context) string {
	name, _ := ctx.Value(eventKey{}).(string)
	return name
}

const handlerNamePrefix = "on_"

// eventNameFromHandler maps on_<event> to <event>.
func eventNameFromHandler(h *Handler) (string, error) {
	name := h.Name()
	if !strings.HasPrefix(name, handlerNamePrefix) || len(name) == len(handlerNamePrefix) {
		return "", &InvalidHandlerNameError{Name: name}
	}
	return strings.TrimPrefix(name, handlerNamePrefix), nil
}
