package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"order-realtime/internal/observability"
)

// OrderEventBindings are the routing keys the consumer binds on the orders exchange.
var OrderEventBindings = []string{"order.#", "payment.#"}

// Handler processes one message body.
type Handler func(ctx context.Context, body []byte) error

// Delivery is the subset of amqp.Delivery the consumer settles.
type Delivery interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Consumer reads order-lifecycle events from a durable queue.
type Consumer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	queue      string
	deliveries <-chan amqp.Delivery
}

// NewConsumer declares the exchange, queue and bindings and starts consuming.
func NewConsumer(amqpURL, exchange, queue string) (*Consumer, error) {
	if amqpURL == "" {
		return nil, errors.New("empty amqp url")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	closeAll := func() {
		_ = ch.Close()
		_ = conn.Close()
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, key := range OrderEventBindings {
		if err := ch.QueueBind(queue, key, exchange, false, nil); err != nil {
			closeAll()
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	if err := ch.Qos(32, 0, false); err != nil {
		closeAll()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}

	log.Info().Str("exchange", exchange).Str("queue", queue).Strs("bindings", OrderEventBindings).Msg("rabbitmq consumer connected")
	return &Consumer{conn: conn, ch: ch, queue: queue, deliveries: deliveries}, nil
}

// Run hands every delivery to handler until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-c.deliveries:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			settle(ctx, &d, d.Body, d.RoutingKey, handler)
		}
	}
}

// settle runs handler for one delivery. Failed messages are dropped rather than
// requeued; a redelivered status change could overwrite a newer one.
func settle(ctx context.Context, d Delivery, body []byte, routingKey string, handler Handler) {
	if err := handler(ctx, body); err != nil {
		observability.IncAMQPConsumed("rejected")
		log.Warn().Err(err).Str("routing_key", routingKey).Msg("order event rejected")
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error().Err(nackErr).Msg("amqp nack failed")
		}
		return
	}
	observability.IncAMQPConsumed("ok")
	if err := d.Ack(false); err != nil {
		log.Error().Err(err).Msg("amqp ack failed")
	}
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
