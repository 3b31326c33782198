package dispatcher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandlerName is returned by Register when no event name is given and the
	// handler name does not follow the on_<event> convention.
	ErrInvalidHandlerName = errors.New("handler name must be on_<event> when no event name is given")

	// ErrHandlerKindConflict is returned when a handler is registered both with and
	// without a priority for the same event.
	ErrHandlerKindConflict = errors.New("handler already registered for this event with a different priority kind")

	// ErrNilHandler is returned when Register receives a nil handler.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrOwnerNotComparable is returned by Activate for nil owners and owners whose
	// dynamic type cannot be compared, such as structs holding a slice.
	ErrOwnerNotComparable = errors.New("owner must be a non-nil comparable value")
)

// InvalidHandlerNameError carries the offending handler name.
type InvalidHandlerNameError struct {
	Name string
}

func (e *InvalidHandlerNameError) Error() string {
	return fmt.Sprintf("invalid handler name %q: %v", e.Name, ErrInvalidHandlerName)
}

func (e *InvalidHandlerNameError) Unwrap() error {
	return ErrInvalidHandlerName
}

// HandlerError reports a handler that failed or panicked during dispatch.
type HandlerError struct {
	Event    string
	Handler  string
	Panicked bool
	Err      error
}

func (e *HandlerError) Error() string {
	name := e.Handler
	if name == "" {
		name = "<anonymous>"
	}
	if e.Panicked {
		return fmt.Sprintf("handler %s panicked on event %q: %v", name, e.Event, e.Err)
	}
	return fmt.Sprintf("handler %s failed on event %q: %v", name, e.Event, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
