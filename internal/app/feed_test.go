package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"socialfeed/pkg/domain"
	"socialfeed/pkg/gateway"
)

func TestFetchPostsReplacesList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.signUpAndLogin(t, "alice@example.com", "pw-123456", "alice")
	for _, text := range []string{"first", "second"} {
		if _, err := env.svc.InsertPost(ctx, session.UserID, text, ""); err != nil {
			t.Fatalf("insert post: %v", err)
		}
	}

	if err := env.feed.FetchPosts(ctx); err != nil {
		t.Fatalf("fetch posts: %v", err)
	}
	posts := env.feed.Posts()
	if len(posts) != 2 {
		t.Fatalf("len(posts) = %d, want 2", len(posts))
	}
	if env.feed.Loading() {
		t.Fatalf("loading must clear after fetch")
	}
	if env.feed.Err() != "" {
		t.Fatalf("unexpected error: %q", env.feed.Err())
	}
}

func TestFetchPostsFailureKeepsPreviousList(t *testing.T) {
	old := []domain.Post{{ID: "p1", Text: "kept"}}
	fail := errors.New("backend unavailable")
	failing := false
	fake := &fakeGateway{
		listPostsFn: func(gateway.PostFilter) ([]domain.Post, error) {
			if failing {
				return nil, fail
			}
			return old, nil
		},
	}
	feed := NewFeedContainer(fake)
	ctx := context.Background()

	if err := feed.FetchPosts(ctx); err != nil {
		t.Fatalf("first fetch: %v", err)
	}

	failing = true
	if err := feed.FetchPosts(ctx); !errors.Is(err, fail) {
		t.Fatalf("expected fetch failure, got: %v", err)
	}
	if posts := feed.Posts(); len(posts) != 1 || posts[0].ID != "p1" {
		t.Fatalf("previous list must stay available, got: %+v", posts)
	}
	if feed.Err() != "backend unavailable" {
		t.Fatalf("err = %q, want the failure message", feed.Err())
	}
	if feed.Loading() {
		t.Fatalf("loading must clear even on failure")
	}

	// a subsequent success clears the error and replaces the list
	failing = false
	if err := feed.FetchPosts(ctx); err != nil {
		t.Fatalf("recovery fetch: %v", err)
	}
	if feed.Err() != "" {
		t.Fatalf("error must clear after success, got %q", feed.Err())
	}
}

func TestAddPostPrependsRegardlessOfTimestamp(t *testing.T) {
	feed := NewFeedContainer(&fakeGateway{})
	now := time.Now().UTC()
	feed.AddPost(domain.Post{ID: "p1", CreatedAt: now})
	// older than the head, still goes first
	feed.AddPost(domain.Post{ID: "p2", CreatedAt: now.Add(-time.Hour)})

	posts := feed.Posts()
	if len(posts) != 2 || posts[0].ID != "p2" {
		t.Fatalf("expected p2 first, got: %+v", posts)
	}
}

func TestAddPostDedupesByID(t *testing.T) {
	feed := NewFeedContainer(&fakeGateway{})
	feed.AddPost(domain.Post{ID: "p1", Text: "original"})
	feed.AddPost(domain.Post{ID: "p1", Text: "realtime copy"})

	posts := feed.Posts()
	if len(posts) != 1 {
		t.Fatalf("len(posts) = %d, want 1", len(posts))
	}
	if posts[0].Text != "original" {
		t.Fatalf("first writer wins, got: %q", posts[0].Text)
	}
}

func TestRemovePostRemovesExactlyOne(t *testing.T) {
	feed := NewFeedContainer(&fakeGateway{})
	for _, id := range []string{"p3", "p2", "p1"} {
		feed.AddPost(domain.Post{ID: id})
	}

	feed.RemovePost("p2")
	posts := feed.Posts()
	if len(posts) != 2 || posts[0].ID != "p1" || posts[1].ID != "p3" {
		t.Fatalf("unexpected list after removal: %+v", posts)
	}

	// removing an unknown ID is a no-op
	feed.RemovePost("missing")
	if len(feed.Posts()) != 2 {
		t.Fatalf("removal of unknown id must not change the list")
	}
}

func TestStaleFetchResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	calls := 0
	fake := &fakeGateway{}
	fake.listPostsFn = func(gateway.PostFilter) ([]domain.Post, error) {
		fake.mu.Lock()
		calls++
		n := calls
		fake.mu.Unlock()
		if n == 1 {
			// slow initial fetch, resolves after the refresh
			<-release
			return []domain.Post{{ID: "stale"}}, nil
		}
		return []domain.Post{{ID: "fresh"}}, nil
	}
	feed := NewFeedContainer(fake)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- feed.FetchPosts(ctx) }()
	waitFor(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return calls == 1
	})

	if err := feed.FetchPosts(ctx); err != nil {
		t.Fatalf("refresh fetch: %v", err)
	}
	close(release)
	<-done

	posts := feed.Posts()
	if len(posts) != 1 || posts[0].ID != "fresh" {
		t.Fatalf("stale response must not overwrite the newer one, got: %+v", posts)
	}
}

func TestRealtimeInsertIsPrepended(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	session := env.signUpAndLogin(t, "alice@example.com", "pw-123456", "alice")

	if err := env.feed.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer env.feed.Close()

	post, err := env.svc.InsertPost(ctx, session.UserID, "pushed", "")
	if err != nil {
		t.Fatalf("insert post: %v", err)
	}
	waitFor(t, func() bool {
		posts := env.feed.Posts()
		return len(posts) == 1 && posts[0].ID == post.ID
	})
}

func TestCloseIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	if err := env.feed.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.feed.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := env.feed.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	// closing a never-started feed is also fine
	idle := NewFeedContainer(&fakeGateway{})
	if err := idle.Close(); err != nil {
		t.Fatalf("close without start: %v", err)
	}
}
