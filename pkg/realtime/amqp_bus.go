package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"socialfeed/pkg/domain"
)

const defaultExchange = "feed.posts"

// AMQPBus broadcasts post inserts through a RabbitMQ fanout exchange.
type AMQPBus struct {
	conn     *amqp.Connection
	exchange string

	mu      sync.Mutex
	pubChan *amqp.Channel
}

// NewAMQPBus dials RabbitMQ and declares the fanout exchange.
func NewAMQPBus(url, exchange string) (*AMQPBus, error) {
	if strings.TrimSpace(exchange) == "" {
		exchange = defaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", false, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPBus{conn: conn, exchange: exchange, pubChan: ch}, nil
}

// Publish broadcasts one post to all bound queues.
func (b *AMQPBus) Publish(ctx context.Context, post domain.Post) error {
	payload, err := json.Marshal(post)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pubChan.PublishWithContext(ctx, b.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
}

// Subscribe binds an exclusive queue to the exchange and streams its messages.
func (b *AMQPBus) Subscribe(_ context.Context) (Subscription, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", b.exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}
	sub := &amqpSubscription{
		ch:    ch,
		posts: make(chan domain.Post, 16),
	}
	go sub.loop(deliveries)
	return sub, nil
}

// Close tears down the connection and every channel on it.
func (b *AMQPBus) Close() error {
	return b.conn.Close()
}

type amqpSubscription struct {
	ch    *amqp.Channel
	posts chan domain.Post
	once  sync.Once
}

func (s *amqpSubscription) loop(deliveries <-chan amqp.Delivery) {
	defer close(s.posts)
	for d := range deliveries {
		var post domain.Post
		if err := json.Unmarshal(d.Body, &post); err != nil {
			slog.Warn("realtime: drop malformed post event", "err", err)
			continue
		}
		s.posts <- post
	}
}

func (s *amqpSubscription) Posts() <-chan domain.Post {
	return s.posts
}

func (s *amqpSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.ch.Close()
	})
	return err
}
