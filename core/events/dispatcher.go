package events

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kilianp07/wcs/core/logger"
)

// DefaultMaxDepth bounds recursive event chains unless overridden.
const DefaultMaxDepth = 8

// Handler reacts to one fired event. Handlers are constructed fresh for
// every invocation and may hold per-invocation state.
type Handler interface {
	Handle(ctx context.Context, payload any) error
}

// HandlerFactory builds a new handler instance for one invocation.
type HandlerFactory func() Handler

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload any) error

func (f HandlerFunc) Handle(ctx context.Context, payload any) error { return f(ctx, payload) }

// TooManyEventsError reports that a single call chain fired more nested
// events than the dispatcher allows. Depth is the depth of the refused fire.
type TooManyEventsError struct {
	Depth int
}

func (e *TooManyEventsError) Error() string {
	return fmt.Sprintf("events: too many events in one chain (depth %d)", e.Depth)
}

type depthKey struct{}

// chainDepth returns the number of events already in flight on this chain.
func chainDepth(ctx context.Context) int {
	d, _ := ctx.Value(depthKey{}).(int)
	return d
}

// Dispatcher synchronously invokes registered handlers for named events.
// Chain depth travels inside the context handed to each handler, so
// independent chains on the same dispatcher never observe each other.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]HandlerFactory
	maxDepth int
	log      logger.Logger
}

// NewDispatcher creates a dispatcher. A non-positive maxDepth falls back to
// DefaultMaxDepth.
func NewDispatcher(maxDepth int, log logger.Logger) *Dispatcher {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Dispatcher{
		handlers: make(map[string][]HandlerFactory),
		maxDepth: maxDepth,
		log:      log,
	}
}

// Register adds a handler factory for the named event. Names are matched
// case-insensitively; handlers fire in registration order.
func (d *Dispatcher) Register(name string, factory HandlerFactory) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("events: blank event name")
	}
	if factory == nil {
		return fmt.Errorf("events: nil handler factory for %s", name)
	}
	key := strings.ToLower(name)
	d.mu.Lock()
	d.handlers[key] = append(d.handlers[key], factory)
	d.mu.Unlock()
	return nil
}

// Fire invokes every handler registered for the event, sequentially. The
// first handler error aborts the remaining handlers and propagates. Firing
// an event nobody listens to is not an error.
func (d *Dispatcher) Fire(ctx context.Context, name string, payload any) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("events: blank event name")
	}
	depth := chainDepth(ctx) + 1
	if depth > d.maxDepth {
		return &TooManyEventsError{Depth: depth}
	}
	ctx = context.WithValue(ctx, depthKey{}, depth)

	d.mu.RLock()
	factories := append([]HandlerFactory(nil), d.handlers[strings.ToLower(name)]...)
	d.mu.RUnlock()

	if len(factories) == 0 {
		d.log.Debugf("no handlers registered for event %s", name)
		return nil
	}
	for _, factory := range factories {
		if err := factory().Handle(ctx, payload); err != nil {
			return fmt.Errorf("events: handler for %s: %w", name, err)
		}
	}
	return nil
}
