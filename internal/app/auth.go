package app

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"socialfeed/pkg/domain"
	"socialfeed/pkg/gateway"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthContainer owns the current-user identity. It is either anonymous or
// authenticated; all transitions go through its operations.
type AuthContainer struct {
	gw gateway.Gateway

	mu      sync.RWMutex
	session *domain.Session
}

// NewAuthContainer builds an anonymous container over the gateway.
func NewAuthContainer(gw gateway.Gateway) *AuthContainer {
	return &AuthContainer{gw: gw}
}

// RecoverSession asks the gateway for an existing session at startup. It
// never fails outward; any error normalizes to the anonymous state.
func (c *AuthContainer) RecoverSession(ctx context.Context) {
	session, ok, err := c.gw.CurrentSession(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil || !ok {
		if err != nil {
			slog.Debug("session recovery failed", "err", err)
		}
		c.session = nil
		return
	}
	c.session = &session
	slog.Info("session recovered", "userId", session.UserID)
}

// Login verifies credentials through the gateway. Gateway failures are
// returned verbatim and leave the container anonymous.
func (c *AuthContainer) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrEmailAndPasswordRequired
	}
	session, err := c.gw.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.session = &session
	c.mu.Unlock()
	return nil
}

// SignUp creates an account. Local validation runs before any gateway call.
// A successful sign-up does not authenticate this container; the caller is
// expected to redirect to login.
func (c *AuthContainer) SignUp(ctx context.Context, email, password, confirmPassword, displayName string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	if password != confirmPassword {
		return ErrPasswordsDoNotMatch
	}
	if strings.TrimSpace(displayName) == "" {
		return ErrDisplayNameRequired
	}
	result, err := c.gw.CreateAccount(ctx, email, password, displayName)
	if err != nil {
		return err
	}
	if result.Session == nil {
		return ErrConfirmationPending
	}
	return nil
}

// Logout terminates the session. On gateway failure the current state is
// kept, since the server still considers the session valid.
func (c *AuthContainer) Logout(ctx context.Context) error {
	if err := c.gw.EndSession(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	return nil
}

// Session returns the current identity, if authenticated.
func (c *AuthContainer) Session() (domain.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return domain.Session{}, false
	}
	return *c.session, true
}

// Authenticated reports whether a session is held.
func (c *AuthContainer) Authenticated() bool {
	_, ok := c.Session()
	return ok
}
