package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tienchung1704/real-dinhanstore/config"
)

// Rabbit publishes events to a durable topic exchange, routed by event type.
type Rabbit struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex // amqp channels are not safe for concurrent publishing
	ch *amqp.Channel
}

func DialRabbit(cfg config.RabbitMQConfig) (*Rabbit, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	return &Rabbit{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

func (r *Rabbit) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ch.PublishWithContext(ctx, r.exchange, string(e.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Timestamp:    e.OccurredAt,
		Type:         string(e.Type),
		Body:         body,
	})
}

// Consume declares a durable queue bound to the given routing keys (all order
// events when none are given) and starts a manual-ack consumer on it.
func (r *Rabbit) Consume(queue string, prefetch int, keys ...string) (<-chan amqp.Delivery, error) {
	if len(keys) == 0 {
		keys = []string{"order.#"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	for _, key := range keys {
		if err := r.ch.QueueBind(queue, key, r.exchange, false, nil); err != nil {
			return nil, fmt.Errorf("bind %s to %s: %w", queue, key, err)
		}
	}
	if err := r.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return r.ch.Consume(queue, "", false, false, false, false, nil)
}

func (r *Rabbit) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.ch.Close()
	return r.conn.Close()
}
