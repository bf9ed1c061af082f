package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"socialfeed/pkg/domain"
	"socialfeed/pkg/gateway"
)

// ProfileContainer owns the signed-in user's profile record and post history.
type ProfileContainer struct {
	gw   gateway.Gateway
	auth *AuthContainer

	mu      sync.Mutex
	profile *domain.Profile
	posts   []domain.Post
	loading bool
	lastErr string
}

// NewProfileContainer builds an empty container bound to the auth container,
// whose Logout it triggers when the session turns out to be gone.
func NewProfileContainer(gw gateway.Gateway, auth *AuthContainer) *ProfileContainer {
	return &ProfileContainer{gw: gw, auth: auth}
}

// FetchUserProfile loads the profile row for the current session, creating it
// on first use. A creation collision with a concurrent writer resolves by
// re-fetching the existing row. A display name that drifted from the session
// metadata is written back before returning.
func (c *ProfileContainer) FetchUserProfile(ctx context.Context) error {
	c.setLoading(true)
	defer c.setLoading(false)

	session, ok := c.auth.Session()
	if !ok {
		return c.fail(ctx, gateway.ErrSessionMissing)
	}

	profile, found, err := c.gw.GetProfile(ctx, session.UserID)
	if err != nil {
		return c.fail(ctx, err)
	}
	if !found {
		profile, err = c.createProfile(ctx, session)
		if err != nil {
			return c.fail(ctx, err)
		}
	}
	if session.DisplayName != "" && profile.DisplayName != session.DisplayName {
		updated, err := c.gw.SetDisplayName(ctx, profile.ID, session.DisplayName)
		if err != nil {
			return c.fail(ctx, err)
		}
		profile = updated
	}

	c.mu.Lock()
	c.profile = &profile
	c.lastErr = ""
	c.mu.Unlock()
	return nil
}

func (c *ProfileContainer) createProfile(ctx context.Context, session domain.Session) (domain.Profile, error) {
	created, err := c.gw.CreateProfile(ctx, domain.Profile{
		ID:          session.UserID,
		Email:       session.Email,
		DisplayName: deriveDisplayName(session),
	})
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, gateway.ErrProfileExists) {
		return domain.Profile{}, err
	}
	// lost the creation race, e.g. to a server-side trigger; the existing row
	// wins
	existing, found, err := c.gw.GetProfile(ctx, session.UserID)
	if err != nil {
		return domain.Profile{}, err
	}
	if !found {
		return domain.Profile{}, gateway.ErrProfileExists
	}
	return existing, nil
}

// FetchUserPosts loads the profile owner's post history newest-first. Without
// a loaded profile it is a no-op.
func (c *ProfileContainer) FetchUserPosts(ctx context.Context) error {
	c.mu.Lock()
	profile := c.profile
	c.mu.Unlock()
	if profile == nil {
		return nil
	}

	c.setLoading(true)
	defer c.setLoading(false)

	posts, err := c.gw.ListPosts(ctx, gateway.PostFilter{AuthorID: profile.ID})
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.lastErr = err.Error()
		return err
	}
	c.posts = posts
	c.lastErr = ""
	return nil
}

// fail records the error; a missing session additionally forces a logout so
// the rest of the app drops the dead identity.
func (c *ProfileContainer) fail(ctx context.Context, err error) error {
	if errors.Is(err, gateway.ErrSessionMissing) {
		if logoutErr := c.auth.Logout(ctx); logoutErr != nil {
			slog.Warn("forced logout failed", "err", logoutErr)
		}
	}
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
	return err
}

func (c *ProfileContainer) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

// Profile returns the loaded profile, if any.
func (c *ProfileContainer) Profile() (domain.Profile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile == nil {
		return domain.Profile{}, false
	}
	return *c.profile, true
}

// Posts returns a copy of the loaded post history.
func (c *ProfileContainer) Posts() []domain.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

// Loading reports whether a fetch is in flight.
func (c *ProfileContainer) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the last failure message, or empty after a success.
func (c *ProfileContainer) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// deriveDisplayName picks the first usable name: session metadata, the local
// part of the email, then a generic fallback.
func deriveDisplayName(session domain.Session) string {
	if name := strings.TrimSpace(session.DisplayName); name != "" {
		return name
	}
	if at := strings.Index(session.Email, "@"); at > 0 {
		return session.Email[:at]
	}
	return "User"
}
