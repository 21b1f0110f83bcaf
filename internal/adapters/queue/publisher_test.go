package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetapp/internal/domain"
)

type fakeChannel struct {
	exchange, key string
	msg           amqp.Publishing
	err           error
	closed        bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type fakeConn struct{ closed bool }

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_Deliver(t *testing.T) {
	ch := &fakeChannel{}
	p := &Publisher{queue: DefaultQueueName, logger: discardLogger(), ch: ch}

	n := &domain.SubscriptionNotification{SubscriptionID: "sub-1", MeetupID: "m-1", MeetupTitle: "Go night"}
	require.NoError(t, p.Deliver(context.Background(), n))

	assert.Equal(t, "", ch.exchange)
	assert.Equal(t, DefaultQueueName, ch.key)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, "sub-1", ch.msg.MessageId)

	var decoded domain.SubscriptionNotification
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "Go night", decoded.MeetupTitle)

	ch.err = errors.New("channel closed")
	assert.Error(t, p.Deliver(context.Background(), n))

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestPublisher_RedialsClosedChannel(t *testing.T) {
	stale := &fakeChannel{err: amqp.ErrClosed}
	fresh := &fakeChannel{}
	dials := 0
	p := &Publisher{
		queue:  DefaultQueueName,
		logger: discardLogger(),
		ch:     stale,
		conn:   &fakeConn{},
		dial: func() (io.Closer, publishChannel, error) {
			dials++
			return &fakeConn{}, fresh, nil
		},
	}

	require.NoError(t, p.Deliver(context.Background(), &domain.SubscriptionNotification{SubscriptionID: "sub-2"}))
	assert.Equal(t, 1, dials)
	assert.True(t, stale.closed)
	assert.Equal(t, "sub-2", fresh.msg.MessageId)
}

func TestPublisher_RedialFailure(t *testing.T) {
	p := &Publisher{
		queue:  DefaultQueueName,
		logger: discardLogger(),
		dial: func() (io.Closer, publishChannel, error) {
			return nil, nil, errors.New("dial broker: connection refused")
		},
	}

	err := p.Deliver(context.Background(), &domain.SubscriptionNotification{SubscriptionID: "sub-3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	require.NoError(t, p.Close())
}
