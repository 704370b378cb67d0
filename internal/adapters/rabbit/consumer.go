package rabbit

import (
	"context"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	ch    *amqp.Channel
	queue string
}

// NewConsumer declares a durable queue bound to keys on the events exchange.
func NewConsumer(conn *amqp.Connection, queue string, keys []string) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, errors.Wrap(err, "declare queue")
	}
	for _, rk := range keys {
		if err := ch.QueueBind(q.Name, rk, Exchange, false, nil); err != nil {
			_ = ch.Close()
			return nil, errors.Wrapf(err, "bind %s", rk)
		}
	}
	if err := ch.Qos(8, 0, false); err != nil {
		_ = ch.Close()
		return nil, errors.Wrap(err, "qos")
	}
	return &Consumer{ch: ch, queue: q.Name}, nil
}

func (c *Consumer) Consume(ctx context.Context) (<-chan amqp.Delivery, error) {
	return c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
}

func (c *Consumer) Close() error {
	return c.ch.Close()
}
