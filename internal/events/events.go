package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/storefront/pkg/types"
)

// TypeOrderPlaced identifies the event emitted after an order is persisted
const TypeOrderPlaced = "order.placed"

// DefaultListenerTimeout bounds a single listener delivery
const DefaultListenerTimeout = 10 * time.Second

// ErrDispatcherClosed is returned by Close when called twice
var ErrDispatcherClosed = errors.New("dispatcher closed")

// OrderPlaced carries a snapshot of a newly placed order
type OrderPlaced struct {
	ID         string
	Order      types.Order
	OccurredAt time.Time
}

// NewOrderPlaced snapshots order so listeners never share memory with the caller
func NewOrderPlaced(order *types.Order) OrderPlaced {
	snapshot := *order
	snapshot.Items = make([]types.OrderItem, len(order.Items))
	for i, item := range order.Items {
		snapshot.Items[i] = item
		if item.Product != nil {
			productCopy := *item.Product
			snapshot.Items[i].Product = &productCopy
		}
	}
	return OrderPlaced{
		ID:         uuid.NewString(),
		Order:      snapshot,
		OccurredAt: time.Now().UTC(),
	}
}

// Listener reacts to placed orders. Errors are logged by the dispatcher and
// never reach the code that placed the order.
type Listener interface {
	Name() string
	HandleOrderPlaced(ctx context.Context, event OrderPlaced) error
}

// Publisher is the side of the dispatcher the order service depends on
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, order *types.Order)
}

// Dispatcher delivers events to an ordered list of listeners without making
// the publisher wait. Each delivery runs in its own goroutine on a context
// detached from the publisher's cancellation.
type Dispatcher struct {
	logger  *slog.Logger
	timeout time.Duration

	mu        sync.RWMutex
	listeners []Listener
	closed    bool
	inflight  sync.WaitGroup
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithTimeout sets the per-listener delivery timeout
func WithTimeout(d time.Duration) Option {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// NewDispatcher creates a dispatcher with the given listeners
func NewDispatcher(logger *slog.Logger, listeners []Listener, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		logger:    logger,
		timeout:   DefaultListenerTimeout,
		listeners: append([]Listener(nil), listeners...),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe appends a listener
func (d *Dispatcher) Subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// PublishOrderPlaced schedules delivery of an OrderPlaced event and returns
// immediately. Events published after Close are dropped with a warning.
func (d *Dispatcher) PublishOrderPlaced(ctx context.Context, order *types.Order) {
	event := NewOrderPlaced(order)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("dropping event after shutdown", "event_id", event.ID, "order_id", order.ID)
		return
	}

	base := context.WithoutCancel(ctx)
	for _, l := range d.listeners {
		d.inflight.Add(1)
		go d.deliver(base, l, event)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, l Listener, event OrderPlaced) {
	defer d.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("listener panicked",
				"listener", l.Name(), "event_id", event.ID, "panic", fmt.Sprint(r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := l.HandleOrderPlaced(ctx, event); err != nil {
		d.logger.Error("listener failed",
			"listener", l.Name(), "event_id", event.ID, "order_id", event.Order.ID, "error", err)
	}
}

// Close stops accepting events and waits for in-flight deliveries or ctx
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits for deliveries scheduled so far without closing the dispatcher.
// Publishes block until it returns, so a listener must not publish while a
// Flush is waiting on it.
func (d *Dispatcher) Flush() {
	// Publishers Add under the read lock; the write lock keeps Add and Wait apart
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inflight.Wait()
}
