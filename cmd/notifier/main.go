// Command notifier consumes order events from RabbitMQ and emits the customer
// notification each one calls for.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/tienchung1704/real-dinhanstore/config"
	"github.com/tienchung1704/real-dinhanstore/events"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
)

const prefetch = 10

type Notification struct {
	To      string
	Subject string
	Body    string
}

// compose returns the notification for e, or false when the event needs none.
func compose(e events.Event) (Notification, bool) {
	if e.CustomerEmail == "" {
		return Notification{}, false
	}
	n := Notification{To: e.CustomerEmail}
	switch e.Type {
	case events.OrderCreated:
		n.Subject = fmt.Sprintf("Order %s received", e.OrderNumber)
		n.Body = fmt.Sprintf("Hi %s, we received your order %s. Total: %s VND, payment: %s.",
			e.CustomerName, e.OrderNumber, e.Total.StringFixed(0), e.PaymentMethod)
	case events.OrderPaid:
		n.Subject = fmt.Sprintf("Payment for %s confirmed", e.OrderNumber)
		n.Body = fmt.Sprintf("Hi %s, payment of %s VND for order %s is confirmed.",
			e.CustomerName, e.Total.StringFixed(0), e.OrderNumber)
		if e.PointsEarned > 0 {
			n.Body += fmt.Sprintf(" You earned %d points.", e.PointsEarned)
		}
	case events.OrderCancelled:
		n.Subject = fmt.Sprintf("Order %s cancelled", e.OrderNumber)
		n.Body = fmt.Sprintf("Hi %s, order %s has been cancelled. Any points used were returned.",
			e.CustomerName, e.OrderNumber)
	case events.OrderRefundRequired:
		n.Subject = fmt.Sprintf("Refund for order %s", e.OrderNumber)
		n.Body = fmt.Sprintf("Hi %s, we received %s VND for order %s after it was cancelled. The amount will be refunded to you.",
			e.CustomerName, e.Total.StringFixed(0), e.OrderNumber)
	case events.OrderStatusChanged:
		n.Subject = fmt.Sprintf("Order %s is %s", e.OrderNumber, e.Status)
		n.Body = fmt.Sprintf("Hi %s, order %s is now %s.", e.CustomerName, e.OrderNumber, e.Status)
	default:
		return Notification{}, false
	}
	return n, true
}

// handle acks processed deliveries and drops malformed ones without requeue.
func handle(d amqp.Delivery) {
	var e events.Event
	if err := json.Unmarshal(d.Body, &e); err != nil {
		logx.Warn().Err(err).Str("message_id", d.MessageId).Msg("invalid event payload")
		_ = d.Nack(false, false)
		return
	}
	if n, ok := compose(e); ok {
		logx.Info().
			Str("event", string(e.Type)).
			Str("order", e.OrderNumber).
			Str("to", n.To).
			Str("subject", n.Subject).
			Msg(n.Body)
	}
	if err := d.Ack(false); err != nil {
		logx.Error().Err(err).Msg("failed to ack message")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Env})
	if cfg.RabbitMQ.URL == "" {
		logx.Fatal().Msg("RABBITMQ_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rabbit, err := events.DialRabbit(cfg.RabbitMQ)
	if err != nil {
		logx.Fatal().Err(err).Msg("connect rabbitmq")
	}
	defer rabbit.Close()

	msgs, err := rabbit.Consume(cfg.RabbitMQ.Queue, prefetch)
	if err != nil {
		logx.Fatal().Err(err).Msg("start consumer")
	}
	logx.Info().Str("queue", cfg.RabbitMQ.Queue).Msg("notifier started, waiting for events")

	for {
		select {
		case <-ctx.Done():
			logx.Info().Msg("notifier stopped")
			return
		case d, ok := <-msgs:
			if !ok {
				logx.Error().Msg("delivery channel closed")
				return
			}
			handle(d)
		}
	}
}
