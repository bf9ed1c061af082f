package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"socialfeed/pkg/domain"
	"socialfeed/pkg/gateway"
	"socialfeed/pkg/realtime"
)

// FeedContainer owns the in-memory feed: the ordered post list, the
// loading/error flags, and the realtime subscription lifecycle.
type FeedContainer struct {
	gw gateway.Gateway

	mu       sync.Mutex
	posts    []domain.Post
	loading  bool
	lastErr  string
	fetchSeq uint64

	sub       realtime.Subscription
	closeOnce sync.Once
}

// NewFeedContainer builds an empty feed over the gateway.
func NewFeedContainer(gw gateway.Gateway) *FeedContainer {
	return &FeedContainer{gw: gw}
}

// FetchPosts loads the whole feed newest-first and replaces the list. On
// failure the previous list stays available and the error message is
// recorded. Responses that arrive after a newer fetch was issued are
// discarded, so a slow early fetch cannot overwrite a later one.
func (c *FeedContainer) FetchPosts(ctx context.Context) error {
	c.mu.Lock()
	c.fetchSeq++
	seq := c.fetchSeq
	c.loading = true
	c.lastErr = ""
	c.mu.Unlock()

	posts, err := c.gw.ListPosts(ctx, gateway.PostFilter{})

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.fetchSeq {
		// stale response; a newer fetch owns the state now
		return err
	}
	c.loading = false
	if err != nil {
		c.lastErr = err.Error()
		return err
	}
	c.posts = posts
	c.lastErr = ""
	return nil
}

// AddPost prepends one post regardless of its timestamp. A post whose ID is
// already present is ignored, so the optimistic local echo and its realtime
// copy cannot duplicate.
func (c *FeedContainer) AddPost(post domain.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.posts {
		if existing.ID == post.ID {
			return
		}
	}
	c.posts = append([]domain.Post{post}, c.posts...)
}

// RemovePost filters out the post with the given ID, keeping the relative
// order of the rest. No current flow removes posts; the operation exists for
// moderation and deletion extensions.
func (c *FeedContainer) RemovePost(postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	filtered := c.posts[:0]
	for _, p := range c.posts {
		if p.ID != postID {
			filtered = append(filtered, p)
		}
	}
	c.posts = filtered
}

// Start opens the realtime subscription and prepends each pushed post as it
// arrives. Incremental prepend keeps the consumer's scroll position; a missed
// event heals on the next FetchPosts.
func (c *FeedContainer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.sub != nil {
		c.mu.Unlock()
		return errors.New("feed already started")
	}
	c.mu.Unlock()

	sub, err := c.gw.SubscribePosts(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.sub = sub
	c.mu.Unlock()

	go func() {
		for post := range sub.Posts() {
			slog.Debug("realtime post", "id", post.ID, "author", post.UserID)
			c.AddPost(post)
		}
	}()
	return nil
}

// Close tears the subscription down exactly once. Safe to call without Start
// and safe to call repeatedly.
func (c *FeedContainer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		sub := c.sub
		c.mu.Unlock()
		if sub != nil {
			err = sub.Close()
		}
	})
	return err
}

// Posts returns a copy of the current list, newest-first.
func (c *FeedContainer) Posts() []domain.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

// Loading reports whether a fetch is in flight.
func (c *FeedContainer) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the last fetch failure message, or empty after a success.
func (c *FeedContainer) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
