package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"socialfeed/pkg/domain"
)

const defaultChannel = "feed:posts:insert"

// RedisBus broadcasts post inserts over a Redis pub/sub channel.
type RedisBus struct {
	client  *redis.Client
	channel string
}

// NewRedisBus builds a Redis-backed bus. An empty channel name falls back to
// the default feed channel.
func NewRedisBus(addr, password, channel string) *RedisBus {
	if strings.TrimSpace(channel) == "" {
		channel = defaultChannel
	}
	return &RedisBus{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		channel: channel,
	}
}

// Publish broadcasts one post to all live subscribers.
func (b *RedisBus) Publish(ctx context.Context, post domain.Post) error {
	payload, err := json.Marshal(post)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Subscribe opens a subscription for post-insert events.
func (b *RedisBus) Subscribe(ctx context.Context) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	// force the subscription to be established before returning
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}
	sub := &redisSubscription{
		pubsub: pubsub,
		posts:  make(chan domain.Post, 16),
	}
	go sub.loop()
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	posts  chan domain.Post
	once   sync.Once
}

func (s *redisSubscription) loop() {
	defer close(s.posts)
	for msg := range s.pubsub.Channel() {
		var post domain.Post
		if err := json.Unmarshal([]byte(msg.Payload), &post); err != nil {
			slog.Warn("realtime: drop malformed post event", "err", err)
			continue
		}
		s.posts <- post
	}
}

func (s *redisSubscription) Posts() <-chan domain.Post {
	return s.posts
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.pubsub.Close()
	})
	return err
}
