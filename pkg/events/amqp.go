package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const contentType = "application/json"

// AMQPPublisher fans events out to every instance bound to the exchange.
type AMQPPublisher struct {
	pool     *ChannelPool
	exchange string
	timeout  time.Duration
}

func NewAMQPPublisher(pool *ChannelPool, exchange string) *AMQPPublisher {
	return &AMQPPublisher{pool: pool, exchange: exchange, timeout: 5 * time.Second}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	ch, err := p.pool.Get()
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer p.pool.Put(ch)

	body, err := Encode(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = ch.PublishWithContext(ctx,
		p.exchange,
		ev.Topic, // ignored by fanout, kept for tracing
		false,
		false,
		amqp.Publishing{
			ContentType: contentType,
			MessageId:   ev.ID,
			Timestamp:   ev.At,
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", ev.Topic, err)
	}
	return nil
}

// Consume binds a private queue to the exchange and feeds each event to h
// until ctx is done. Undecodable messages are dropped.
func Consume(ctx context.Context, pool *ChannelPool, exchange string, log *slog.Logger, h Handler) error {
	ch, err := pool.Dedicated()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume: %w", err)
	}

	log.Info("event consumer started", slog.String("queue", q.Name), slog.String("exchange", exchange))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			ev, err := Decode(d.Body)
			if err != nil {
				log.Warn("dropping undecodable event", slog.Any("err", err))
				continue
			}
			h(ctx, ev)
		}
	}
}

func Encode(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return body, nil
}

func Decode(body []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if ev.Topic == "" {
		return Event{}, fmt.Errorf("event without topic")
	}
	return ev, nil
}
