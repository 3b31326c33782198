package dispatcher

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// eventHandlers holds the handlers for one declared event. ordered and priorities are
// always the same length and co-sorted by priority.
type eventHandlers struct {
	ordered    []*Handler
	priorities []int
	unordered  []*Handler
}

func (e *eventHandlers) remove(h *Handler) bool {
	removed := false
	if idx := slices.Index(e.unordered, h); idx >= 0 {
		e.unordered = slices.Delete(e.unordered, idx, idx+1)
		removed = true
	}
	if idx := slices.Index(e.ordered, h); idx >= 0 {
		e.ordered = slices.Delete(e.ordered, idx, idx+1)
		e.priorities = slices.Delete(e.priorities, idx, idx+1)
		removed = true
	}
	return removed
}

// Dispatcher maps event names to ordered (priority, blocking) and unordered
// (concurrent) handlers.
//
// Registry mutation is expected from load/unload paths. Registering or removing
// handlers for an event while that event is being dispatched is safe for memory but
// whether the in-flight call sees the change is undefined.
type Dispatcher struct {
	mu     sync.RWMutex
	events map[string]*eventHandlers

	ownersMu sync.Mutex
	owners   map[Owner][]boundHandler

	logger   *zap.Logger
	recorder Recorder
}

// New creates an empty dispatcher. Events can be declared later with RegisterEvents.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		events:   make(map[string]*eventHandlers),
		owners:   make(map[Owner][]boundHandler),
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewWithEvents creates a dispatcher and declares the given events.
func NewWithEvents(eventNames []string, opts ...Option) *Dispatcher {
	d := New(opts...)
	d.RegisterEvents(eventNames...)
	return d
}

// RegisterEvents declares event names. Declaring a name that already exists resets it
// and drops every handler registered under it.
func (d *Dispatcher) RegisterEvents(eventNames ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, name := range eventNames {
		if name == "" {
			d.logger.Warn("ignoring empty event name")
			continue
		}
		if existing, ok := d.events[name]; ok && len(existing.ordered)+len(existing.unordered) > 0 {
			d.logger.Warn("event redeclared, dropping its handlers",
				zap.String("event", name),
				zap.Int("ordered", len(existing.ordered)),
				zap.Int("unordered", len(existing.unordered)))
		}
		d.events[name] = &eventHandlers{}
	}
}

// Register attaches h to eventName and returns h.
//
// An empty eventName is derived from the handler name (on_<event>). Without
// WithPriority the handler joins the unordered group; with it, it is inserted after
// every handler of lower or equal priority. Registering for an undeclared event
// declares it and logs a warning.
func (d *Dispatcher) Register(eventName string, h *Handler, opts ...RegisterOption) (*Handler, error) {
	if _, err := d.register(eventName, h, opts...); err != nil {
		return nil, err
	}
	return h, nil
}

// MustRegister is Register for setup code; it panics on error.
func (d *Dispatcher) MustRegister(eventName string, h *Handler, opts ...RegisterOption) *Handler {
	h, err := d.Register(eventName, h, opts...)
	if err != nil {
		panic(err)
	}
	return h
}

// Registrar returns a function that registers handlers with fixed event name and
// options, returning each handler unchanged.
func (d *Dispatcher) Registrar(eventName string, opts ...RegisterOption) func(*Handler) (*Handler, error) {
	return func(h *Handler) (*Handler, error) {
		return d.Register(eventName, h, opts...)
	}
}

func (d *Dispatcher) register(eventName string, h *Handler, opts ...RegisterOption) (string, error) {
	if h == nil || h.fn == nil {
		return "", ErrNilHandler
	}

	var reg registration
	for _, opt := range opts {
		opt(&reg)
	}

	if eventName == "" {
		derived, err := eventNameFromHandler(h)
		if err != nil {
			return "", err
		}
		eventName = derived
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	entry, ok := d.events[eventName]
	if !ok {
		d.logger.Warn("handler registered for undeclared event",
			zap.String("event", eventName),
			zap.String("handler", h.Name()))
		entry = &eventHandlers{}
		d.events[eventName] = entry
	}

	if reg.priority == nil {
		if slices.Contains(entry.ordered, h) {
			return "", fmt.Errorf("register %s on %q: %w", h.Name(), eventName, ErrHandlerKindConflict)
		}
		entry.unordered = append(entry.unordered, h)
		d.logger.Debug("registered unordered handler",
			zap.String("event", eventName),
			zap.String("handler", h.Name()))
		return eventName, nil
	}

	if slices.Contains(entry.unordered, h) {
		return "", fmt.Errorf("register %s on %q: %w", h.Name(), eventName, ErrHandlerKindConflict)
	}
	priority := *reg.priority
	idx := sort.Search(len(entry.priorities), func(i int) bool {
		return entry.priorities[i] > priority
	})
	entry.priorities = slices.Insert(entry.priorities, idx, priority)
	entry.ordered = slices.Insert(entry.ordered, idx, h)
	d.logger.Debug("registered ordered handler",
		zap.String("event", eventName),
		zap.String("handler", h.Name()),
		zap.Int("priority", priority))
	return eventName, nil
}

// Unregister detaches h. With no event names it is removed from every event.
// At most one instance is removed from each list of each named event.
func (d *Dispatcher) Unregister(h *Handler, eventNames ...string) {
	if h == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(eventNames) == 0 {
		for _, entry := range d.events {
			entry.remove(h)
		}
		return
	}

	for _, name := range eventNames {
		entry, ok := d.events[name]
		if !ok {
			d.logger.Warn("cannot unregister handler from undeclared event",
				zap.String("event", name),
				zap.String("handler", h.Name()))
			continue
		}
		entry.remove(h)
	}
}

// Dispatch runs the handlers of eventName with args.
//
// Ordered handlers run one at a time by priority. The first one that returns true
// ends the dispatch; the first one that fails aborts it and its error is returned.
// Otherwise every unordered handler runs concurrently and Dispatch waits for all of
// them, returning their combined errors.
func (d *Dispatcher) Dispatch(ctx context.Context, eventName string, args ...any) error {
	start := time.Now()
	ctx = context.WithValue(ctx, eventKey{}, eventName)

	ordered, unordered, declared := d.snapshot(eventName)
	if !declared {
		d.logger.Error("undeclared event dispatched to no handlers",
			zap.String("event", eventName),
			zap.Int("args", len(args)))
		d.recorder.DispatchObserved(eventName, OutcomeUndeclared, time.Since(start))
		return nil
	}

	for _, h := range ordered {
		claimed, err := invoke(ctx, eventName, h, args)
		if err != nil {
			d.recorder.HandlerFailed(eventName, h.Name())
			d.recorder.DispatchObserved(eventName, OutcomeFailed, time.Since(start))
			return err
		}
		if claimed {
			d.logger.Debug("event claimed",
				zap.String("event", eventName),
				zap.String("handler", h.Name()))
			d.recorder.DispatchObserved(eventName, OutcomeClaimed, time.Since(start))
			return nil
		}
	}

	if err := d.fanOut(ctx, eventName, unordered, args); err != nil {
		d.recorder.DispatchObserved(eventName, OutcomeFailed, time.Since(start))
		return err
	}
	d.recorder.DispatchObserved(eventName, OutcomeCompleted, time.Since(start))
	return nil
}

func (d *Dispatcher) fanOut(ctx context.Context, eventName string, handlers []*Handler, args []any) error {
	if len(handlers) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	wg.Add(len(handlers))
	for _, h := range handlers {
		go func(h *Handler) {
			defer wg.Done()
			if _, err := invoke(ctx, eventName, h, args); err != nil {
				d.recorder.HandlerFailed(eventName, h.Name())
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(h)
	}
	wg.Wait()
	return errs
}

// snapshot copies the handler lists of eventName. An undeclared event is declared
// empty and reported as such.
func (d *Dispatcher) snapshot(eventName string) (ordered, unordered []*Handler, declared bool) {
	d.mu.RLock()
	entry, ok := d.events[eventName]
	if ok {
		ordered = slices.Clone(entry.ordered)
		unordered = slices.Clone(entry.unordered)
	}
	d.mu.RUnlock()
	if ok {
		return ordered, unordered, true
	}

	d.mu.Lock()
	if _, ok := d.events[eventName]; !ok {
		d.events[eventName] = &eventHandlers{}
	}
	d.mu.Unlock()
	return nil, nil, false
}

// Events returns the declared event names in sorted order.
func (d *Dispatcher) Events() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.events))
	for name := range d.events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handlers returns copies of the ordered (priority order) and unordered handler lists.
func (d *Dispatcher) Handlers(eventName string) (ordered, unordered []*Handler) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entry, ok := d.events[eventName]
	if !ok {
		return nil, nil
	}
	return slices.Clone(entry.ordered), slices.Clone(entry.unordered)
}

func invoke(ctx context.Context, eventName string, h *Handler, args []any) (claimed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			claimed = false
			err = &HandlerError{Event: eventName, Handler: h.Name(), Panicked: true, Err: fmt.Errorf("%v", r)}
		}
	}()

	claimed, err = h.Call(ctx, args...)
	if err != nil {
		return false, &HandlerError{Event: eventName, Handler: h.Name(), Err: err}
	}
	return claimed, nil
}
