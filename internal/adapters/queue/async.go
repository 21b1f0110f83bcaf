package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"meetapp/internal/domain"
)

// ErrBufferFull is returned by Emit when the intent was dropped.
var ErrBufferFull = errors.New("notification buffer full")

// ErrEmitterClosed is returned by Emit after Close.
var ErrEmitterClosed = errors.New("notification emitter closed")

// Sink delivers one notification intent, e.g. to a broker or a mailer.
type Sink interface {
	Deliver(ctx context.Context, n *domain.SubscriptionNotification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n *domain.SubscriptionNotification) error

func (f SinkFunc) Deliver(ctx context.Context, n *domain.SubscriptionNotification) error {
	return f(ctx, n)
}

// AsyncEmitter decouples admission from delivery. Emit never blocks: intents
// go to a bounded buffer drained by a single worker, and are dropped when the
// buffer is full. Delivery is at most once.
type AsyncEmitter struct {
	sink    Sink
	logger  *slog.Logger
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan *domain.SubscriptionNotification
	done   chan struct{}
}

var _ domain.NotificationEmitter = (*AsyncEmitter)(nil)

// NewAsyncEmitter starts the delivery worker. Each delivery gets its own
// timeout, detached from the request that emitted it.
func NewAsyncEmitter(sink Sink, bufferSize int, timeout time.Duration, logger *slog.Logger) *AsyncEmitter {
	if bufferSize < 1 {
		bufferSize = 1
	}
	e := &AsyncEmitter{
		sink:    sink,
		logger:  logger,
		timeout: timeout,
		queue:   make(chan *domain.SubscriptionNotification, bufferSize),
		done:    make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *AsyncEmitter) Emit(ctx context.Context, n *domain.SubscriptionNotification) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return ErrEmitterClosed
	}
	select {
	case e.queue <- n:
		return nil
	default:
		e.logger.WarnContext(ctx, "notification dropped", "subscription_id", n.SubscriptionID)
		return ErrBufferFull
	}
}

func (e *AsyncEmitter) run() {
	defer close(e.done)
	for n := range e.queue {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		if err := e.sink.Deliver(ctx, n); err != nil {
			e.logger.Error("notification delivery failed", "subscription_id", n.SubscriptionID, "err", err)
		}
		cancel()
	}
}

// Close stops accepting intents and waits until buffered ones are delivered
// or ctx ends.
func (e *AsyncEmitter) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
