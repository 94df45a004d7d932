package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Apurer/marketplace-api/internal/domains/orders/ports"
)

var (
	// ErrQueueFull is returned when the in-process queue cannot take another notification.
	ErrQueueFull = errors.New("notification queue is full")
	// ErrDispatcherClosed is returned after Close.
	ErrDispatcherClosed = errors.New("notification dispatcher closed")
)

var _ ports.NotificationDispatcher = (*AsyncDispatcher)(nil)

// Deliverer renders a notification and hands it to the notifier.
type Deliverer struct {
	renderer *Renderer
	notifier Notifier
}

func NewDeliverer(renderer *Renderer, notifier Notifier) *Deliverer {
	return &Deliverer{renderer: renderer, notifier: notifier}
}

func (d *Deliverer) Deliver(ctx context.Context, n ports.Notification) error {
	msg, err := d.renderer.Render(ctx, n)
	if err != nil {
		return err
	}
	return d.notifier.Notify(ctx, msg)
}

// AsyncDispatcher delivers notifications from a bounded in-process queue on a
// fixed pool of workers. Enqueue never waits for delivery.
type AsyncDispatcher struct {
	deliverer *Deliverer
	logger    *slog.Logger
	workers   int
	attempts  int
	backoff   time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan ports.Notification
	group  *errgroup.Group
}

type DispatcherOption func(*AsyncDispatcher)

func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *AsyncDispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithWorkers sets the worker count and queue capacity.
func WithWorkers(workers, capacity int) DispatcherOption {
	return func(d *AsyncDispatcher) {
		if workers > 0 {
			d.workers = workers
		}
		if capacity > 0 {
			d.queue = make(chan ports.Notification, capacity)
		}
	}
}

// WithRetry sets how many times a delivery is attempted and the initial backoff.
func WithRetry(attempts int, backoff time.Duration) DispatcherOption {
	return func(d *AsyncDispatcher) {
		if attempts > 0 {
			d.attempts = attempts
		}
		d.backoff = backoff
	}
}

func NewAsyncDispatcher(deliverer *Deliverer, opts ...DispatcherOption) *AsyncDispatcher {
	d := &AsyncDispatcher{
		deliverer: deliverer,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers:   2,
		attempts:  3,
		backoff:   500 * time.Millisecond,
		queue:     make(chan ports.Notification, 256),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the workers. They stop when the queue is closed and drained.
func (d *AsyncDispatcher) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	group := &errgroup.Group{}
	for i := 0; i < d.workers; i++ {
		group.Go(func() error {
			for n := range d.queue {
				d.deliver(ctx, n)
			}
			return nil
		})
	}
	d.mu.Lock()
	d.group = group
	d.mu.Unlock()
}

func (d *AsyncDispatcher) Enqueue(ctx context.Context, n ports.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- n:
		return nil
	default:
		d.logger.WarnContext(ctx, "notification dropped",
			slog.String("notification.kind", string(n.Kind)),
			slog.Int64("order.id", n.OrderID),
		)
		return ErrQueueFull
	}
}

// Close stops accepting notifications and waits for queued ones to be delivered.
func (d *AsyncDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	group := d.group
	d.mu.Unlock()
	if group == nil {
		return nil
	}
	return group.Wait()
}

func (d *AsyncDispatcher) deliver(ctx context.Context, n ports.Notification) {
	backoff := d.backoff
	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if err = d.deliverer.Deliver(ctx, n); err == nil {
			return
		}
		if attempt < d.attempts && backoff > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	d.logger.ErrorContext(ctx, "notification delivery failed",
		slog.String("notification.kind", string(n.Kind)),
		slog.Int64("order.id", n.OrderID),
		slog.Int("attempts", d.attempts),
		slog.String("error", err.Error()),
	)
}
