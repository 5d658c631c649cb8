package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"spacerent/config"
	"spacerent/internal/service"
)

// Consumer binds a durable queue to the rental events exchange and feeds every
// delivery through Dispatch.
type Consumer struct {
	cfg       config.AMQPConfig
	templates Templates
	log       *slog.Logger
}

func NewConsumer(cfg config.AMQPConfig, templates Templates, logger *slog.Logger) *Consumer {
	return &Consumer{cfg: cfg, templates: templates, log: logger}
}

// Run blocks until ctx is cancelled or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		c.cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	for _, key := range RoutingKeys {
		if err := ch.QueueBind(q.Name, key, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	c.log.Info("event bridge consuming", "exchange", c.cfg.Exchange, "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("amqp delivery channel closed")
			}
			c.handle(ctx, msg)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery) {
	err := Dispatch(ctx, c.templates, msg.RoutingKey, msg.Body)
	if err == nil {
		_ = msg.Ack(false)
		return
	}
	requeue := Retryable(err)
	c.log.Warn("event bridge: dispatch failed", "routing_key", msg.RoutingKey, "requeue", requeue, "error", err)
	_ = msg.Nack(false, requeue)
}

// Retryable reports whether redelivering the event could succeed.
func Retryable(err error) bool {
	return !errors.Is(err, ErrBadEvent) &&
		!errors.Is(err, service.ErrNotFound) &&
		!errors.Is(err, service.ErrInvalidInput)
}
