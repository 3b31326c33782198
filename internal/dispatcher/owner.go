package dispatcher

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Owner is a stateful consumer whose handlers are attached and detached together,
// typically an extension. Owners are tracked by identity, so the dynamic type must
// be comparable; implement it on a pointer.
type Owner interface {
	EventHandlers() []Binding
}

// Binding pairs a handler with the event it should receive.
type Binding struct {
	Event   string
	Handler *Handler
	opts    []RegisterOption
}

// Bind describes a registration to be made when an owner is activated. An empty
// event name is derived from the handler name.
func Bind(eventName string, h *Handler, opts ...RegisterOption) Binding {
	return Binding{Event: eventName, Handler: h, opts: opts}
}

type boundHandler struct {
	event   string
	handler *Handler
}

// Activate registers every binding of owner. If any registration fails, the ones
// already made are removed and the error is returned. Activating an owner that is
// already active does nothing.
func (d *Dispatcher) Activate(owner Owner) error {
	if !comparableOwner(owner) {
		return fmt.Errorf("activate %T: %w", owner, ErrOwnerNotComparable)
	}
	d.ownersMu.Lock()
	defer d.ownersMu.Unlock()

	if _, ok := d.owners[owner]; ok {
		d.logger.Warn("owner already active", zap.String("owner", fmt.Sprintf("%T", owner)))
		return nil
	}

	bindings := owner.EventHandlers()
	bound := make([]boundHandler, 0, len(bindings))
	for _, b := range bindings {
		event, err := d.register(b.Event, b.Handler, b.opts...)
		if err != nil {
			for _, done := range bound {
				d.Unregister(done.handler, done.event)
			}
			return fmt.Errorf("activate %T: %w", owner, err)
		}
		bound = append(bound, boundHandler{event: event, handler: b.Handler})
	}

	d.owners[owner] = bound
	d.logger.Debug("owner activated",
		zap.String("owner", fmt.Sprintf("%T", owner)),
		zap.Int("handlers", len(bound)))
	return nil
}

// Deactivate removes the handlers registered by Activate for owner.
func (d *Dispatcher) Deactivate(owner Owner) {
	if !comparableOwner(owner) {
		return
	}
	d.ownersMu.Lock()
	defer d.ownersMu.Unlock()

	bound, ok := d.owners[owner]
	if !ok {
		d.logger.Debug("owner not active", zap.String("owner", fmt.Sprintf("%T", owner)))
		return
	}
	for _, b := range bound {
		d.Unregister(b.handler, b.event)
	}
	delete(d.owners, owner)
	d.logger.Debug("owner deactivated",
		zap.String("owner", fmt.Sprintf("%T", owner)),
		zap.Int("handlers", len(bound)))
}

// IsActive reports whether owner's handlers are currently registered.
func (d *Dispatcher) IsActive(owner Owner) bool {
	if !comparableOwner(owner) {
		return false
	}
	d.ownersMu.Lock()
	defer d.ownersMu.Unlock()

	_, ok := d.owners[owner]
	return ok
}

func comparableOwner(owner Owner) bool {
	return owner != nil && reflect.TypeOf(owner).Comparable()
}
