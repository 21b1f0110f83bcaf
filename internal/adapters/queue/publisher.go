package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"meetapp/internal/domain"
)

// DefaultQueueName is the durable queue carrying subscription notifications.
const DefaultQueueName = "meetup.subscription"

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publishes notification intents as persistent JSON messages on
// the default exchange, routed to a durable queue. A closed channel is
// redialed on the next publish.
type Publisher struct {
	queue  string
	logger *slog.Logger
	dial   func() (io.Closer, publishChannel, error)

	mu   sync.Mutex
	conn io.Closer
	ch   publishChannel
}

var _ Sink = (*Publisher)(nil)

// NewPublisher dials the broker and declares the queue. An empty queue means DefaultQueueName.
func NewPublisher(url, queue string, logger *slog.Logger) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	p := &Publisher{
		queue:  queue,
		logger: logger,
		dial:   func() (io.Closer, publishChannel, error) { return dialQueue(url, queue) },
	}
	conn, ch, err := p.dial()
	if err != nil {
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return p, nil
}

func dialQueue(url, queue string) (io.Closer, publishChannel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return conn, ch, nil
}

// Deliver publishes n. The channel is shared, so publishes are serialized.
func (p *Publisher) Deliver(ctx context.Context, n *domain.SubscriptionNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.SubscriptionID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		if err := p.redial(); err != nil {
			return err
		}
	}
	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) {
		p.logger.WarnContext(ctx, "broker channel closed, redialing", "queue", p.queue)
		if err := p.redial(); err != nil {
			return err
		}
		err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	p.logger.DebugContext(ctx, "notification published", "queue", p.queue, "subscription_id", n.SubscriptionID)
	return nil
}

// redial replaces the connection and channel. Callers hold p.mu.
func (p *Publisher) redial() error {
	p.closeLocked()
	if p.dial == nil {
		return fmt.Errorf("publisher for %s has no broker", p.queue)
	}
	conn, ch, err := p.dial()
	if err != nil {
		return err
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Publisher) closeLocked() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}
