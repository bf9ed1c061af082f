package realtime

import (
	"context"

	"socialfeed/pkg/domain"
)

// Bus delivers post-insert events to subscribers.
type Bus interface {
	Publish(ctx context.Context, post domain.Post) error
	Subscribe(ctx context.Context) (Subscription, error)
}

// Subscription is a live channel of inserted posts. Posts is closed after
// Close; Close is safe to call more than once.
type Subscription interface {
	Posts() <-chan domain.Post
	Close() error
}
