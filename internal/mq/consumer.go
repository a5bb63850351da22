package mq

import (
	"context"
	"fmt"
	"log"

	"github.com/Domenick1991/travelbooking/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// NewConsumer declares queue and binds it to exchange under every key.
func NewConsumer(url, exchange, queue string, keys []string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
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
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	for _, rk := range keys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			closeAll()
			return nil, fmt.Errorf("bind %s: %w", rk, err)
		}
	}
	if err := ch.Qos(8, 0, false); err != nil {
		closeAll()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	return &Consumer{conn: conn, ch: ch, queue: q.Name}, nil
}

// ConsumeBookingEvents runs until ctx is done or the channel closes.
func (c *Consumer) ConsumeBookingEvents(ctx context.Context, handler func(context.Context, domain.BookingEvent) error) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			settle(d, handleDelivery(ctx, d.Body, handler))
		}
	}
}

type outcome int

const (
	ack outcome = iota
	drop
	requeue
)

func handleDelivery(ctx context.Context, body []byte, handler func(context.Context, domain.BookingEvent) error) outcome {
	event, err := domain.ParseBookingEvent(body)
	if err != nil {
		log.Printf("[MQ] action=decode status=dropped err=%v", err)
		return drop
	}
	if err := handler(ctx, event); err != nil {
		log.Printf("[MQ] action=handle type=%s reference=%s err=%v -> requeue", event.Type, event.Reference, err)
		return requeue
	}
	return ack
}

func settle(d amqp.Delivery, o outcome) {
	switch o {
	case ack:
		_ = d.Ack(false)
	case drop:
		_ = d.Nack(false, false)
	case requeue:
		_ = d.Nack(false, true)
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
