package realtime

import (
	"context"
	"sync"

	"socialfeed/pkg/domain"
)

// MemoryBus is an in-process Bus. Used by tests.
type MemoryBus struct {
	mu   sync.Mutex
	subs []*memorySubscription
}

// NewMemoryBus initializes an empty in-memory bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish delivers the post to every live subscriber. Subscribers that are
// not draining their channel are skipped rather than blocking the publisher.
func (b *MemoryBus) Publish(_ context.Context, post domain.Post) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		select {
		case sub.posts <- post:
		default:
		}
	}
	return nil
}

// Subscribe opens an in-memory subscription.
func (b *MemoryBus) Subscribe(_ context.Context) (Subscription, error) {
	sub := &memorySubscription{
		bus:   b,
		posts: make(chan domain.Post, 16),
	}
	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()
	return sub, nil
}

func (b *MemoryBus) drop(target *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub == target {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
}

type memorySubscription struct {
	bus   *MemoryBus
	posts chan domain.Post
	once  sync.Once
}

func (s *memorySubscription) Posts() <-chan domain.Post {
	return s.posts
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.bus.drop(s)
		close(s.posts)
	})
	return nil
}
