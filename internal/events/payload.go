package events

import (
	"errors"
	"fmt"
)

// ErrUnexpectedPayload is returned when dispatch arguments do not carry the
// expected payload type.
var ErrUnexpectedPayload = errors.New("unexpected event payload")

// Payload extracts the first dispatch argument as T.
func Payload[T any](args []any) (T, error) {
	var zero T
	if len(args) == 0 {
		return zero, fmt.Errorf("%w: no arguments, want %T", ErrUnexpectedPayload, zero)
	}
	v, ok := args[0].(T)
	if !ok {
		return zero, fmt.Errorf("%w: got %T, want %T", ErrUnexpectedPayload, args[0], zero)
	}
	return v, nil
}
