package gateway

import (
	"context"

	"socialfeed/pkg/domain"
	"socialfeed/pkg/realtime"
)

// PostFilter narrows ListPosts. The zero value lists the whole feed.
type PostFilter struct {
	AuthorID string
}

// SignUpResult reports account creation. Session is nil when the account was
// created but email confirmation is still pending, so no session was issued.
type SignUpResult struct {
	UserID  string
	Email   string
	Session *domain.Session
}

// Gateway is the backend capability surface the client state containers are
// written against: session issuance, the posts/profiles row store, image
// storage, and the realtime insert channel. Backend response shapes are
// adapted to these typed results at this one boundary; errors carry
// user-presentable messages and are surfaced verbatim by callers.
type Gateway interface {
	// sessions
	Authenticate(ctx context.Context, email, password string) (domain.Session, error)
	CreateAccount(ctx context.Context, email, password, displayName string) (SignUpResult, error)
	CurrentSession(ctx context.Context) (domain.Session, bool, error)
	EndSession(ctx context.Context) error

	// posts
	InsertPost(ctx context.Context, userID, text, imageURL string) (domain.Post, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]domain.Post, error)

	// profiles
	GetProfile(ctx context.Context, id string) (domain.Profile, bool, error)
	CreateProfile(ctx context.Context, profile domain.Profile) (domain.Profile, error)
	SetDisplayName(ctx context.Context, id, displayName string) (domain.Profile, error)

	// image storage
	UploadImage(ctx context.Context, userID, filename string, data []byte, contentType string) (string, error)

	// realtime
	SubscribePosts(ctx context.Context) (realtime.Subscription, error)
}
