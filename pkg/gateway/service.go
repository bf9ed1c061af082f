package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"socialfeed/pkg/auth"
	"socialfeed/pkg/domain"
	"socialfeed/pkg/realtime"
	"socialfeed/pkg/storage"
	"socialfeed/pkg/store"
)

// Config wires the backend building blocks into a Service.
type Config struct {
	Store    store.Store
	Sessions store.SessionStore
	Objects  storage.ObjectStore
	Bus      realtime.Bus
	Tokens   TokenKeeper

	// RequireEmailConfirmation makes CreateAccount register the user without
	// issuing a session, mirroring providers that hold accounts until the
	// confirmation link is clicked.
	RequireEmailConfirmation bool
}

// Service implements Gateway on top of the row store, session store, object
// store, and realtime bus.
type Service struct {
	store          store.Store
	sessions       store.SessionStore
	objects        storage.ObjectStore
	bus            realtime.Bus
	tokens         TokenKeeper
	requireConfirm bool
}

// New validates dependencies and builds the Service.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Objects == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if cfg.Bus == nil {
		return nil, fmt.Errorf("realtime bus is required")
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = NewMemoryTokenKeeper()
	}
	return &Service{
		store:          cfg.Store,
		sessions:       cfg.Sessions,
		objects:        cfg.Objects,
		bus:            cfg.Bus,
		tokens:         tokens,
		requireConfirm: cfg.RequireEmailConfirmation,
	}, nil
}

// Authenticate verifies credentials, issues a session token, and makes it the
// current session.
func (s *Service) Authenticate(_ context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.Session{}, ErrEmailAndPasswordRequired
	}
	user, ok, err := s.store.GetUserByEmail(email)
	if err != nil {
		return domain.Session{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.Session{}, ErrInvalidCredentials
	}
	token, err := s.sessions.NewSession(user.ID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("issue session: %w", err)
	}
	if err := s.tokens.Save(token); err != nil {
		return domain.Session{}, fmt.Errorf("persist session token: %w", err)
	}
	return sessionForUser(user), nil
}

// CreateAccount registers a new user. The issued session, if any, is returned
// but never stored as the current one; the caller decides when to log in.
func (s *Service) CreateAccount(_ context.Context, email, password, displayName string) (SignUpResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return SignUpResult{}, ErrEmailAndPasswordRequired
	}
	exists, err := s.store.HasUserEmail(email)
	if err != nil {
		return SignUpResult{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return SignUpResult{}, ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return SignUpResult{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if displayName = strings.TrimSpace(displayName); displayName != "" {
		user.Metadata = map[string]string{"display_name": displayName}
	}
	if err := s.store.SaveUser(user); err != nil {
		return SignUpResult{}, fmt.Errorf("save user: %w", err)
	}
	result := SignUpResult{UserID: user.ID, Email: user.Email}
	if s.requireConfirm {
		return result, nil
	}
	if _, err := s.sessions.NewSession(user.ID); err != nil {
		return SignUpResult{}, fmt.Errorf("issue session: %w", err)
	}
	session := sessionForUser(user)
	result.Session = &session
	return result, nil
}

// CurrentSession resolves the persisted token to a session. An absent or
// stale token is not an error; the stale token is discarded.
func (s *Service) CurrentSession(_ context.Context) (domain.Session, bool, error) {
	token, err := s.tokens.Load()
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("load session token: %w", err)
	}
	if token == "" {
		return domain.Session{}, false, nil
	}
	userID, ok, err := s.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		_ = s.tokens.Clear()
		return domain.Session{}, false, nil
	}
	user, ok, err := s.store.GetUserByID(userID)
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		_ = s.tokens.Clear()
		return domain.Session{}, false, nil
	}
	return sessionForUser(user), true, nil
}

// EndSession revokes the current token. With no active session it succeeds as
// a no-op. On revocation failure the token is kept, since the server still
// considers it valid.
func (s *Service) EndSession(_ context.Context) error {
	token, err := s.tokens.Load()
	if err != nil {
		return fmt.Errorf("load session token: %w", err)
	}
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(token); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return s.tokens.Clear()
}

// InsertPost creates the post row (server-assigned ID and timestamp), joins
// author info, and announces the insert on the realtime bus.
func (s *Service) InsertPost(ctx context.Context, userID, text, imageURL string) (domain.Post, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Post{}, ErrUserIDRequired
	}
	if strings.TrimSpace(text) == "" {
		return domain.Post{}, ErrPostTextRequired
	}
	post := domain.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		ImageURL:  imageURL,
		CreatedAt: time.Now().UTC(),
	}
	if profile, ok, err := s.store.GetProfile(userID); err == nil && ok {
		post.Author = domain.Author{Email: profile.Email, DisplayName: profile.DisplayName}
	}
	if err := s.store.SavePost(post); err != nil {
		return domain.Post{}, fmt.Errorf("save post: %w", err)
	}
	// delivery is best-effort: the row exists, subscribers can self-heal by
	// refetching
	if err := s.bus.Publish(ctx, post); err != nil {
		slog.Warn("publish post insert", "post", post.ID, "err", err)
	}
	return post, nil
}

// ListPosts returns posts newest-first, optionally narrowed to one author.
func (s *Service) ListPosts(_ context.Context, filter PostFilter) ([]domain.Post, error) {
	if filter.AuthorID != "" {
		return s.store.ListPostsByAuthor(filter.AuthorID)
	}
	return s.store.ListPosts()
}

// GetProfile fetches one profile row.
func (s *Service) GetProfile(_ context.Context, id string) (domain.Profile, bool, error) {
	return s.store.GetProfile(id)
}

// CreateProfile inserts a profile row, reporting ErrProfileExists on an ID
// collision.
func (s *Service) CreateProfile(_ context.Context, profile domain.Profile) (domain.Profile, error) {
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	if err := s.store.CreateProfile(profile); err != nil {
		if errors.Is(err, store.ErrProfileExists) {
			return domain.Profile{}, ErrProfileExists
		}
		return domain.Profile{}, fmt.Errorf("create profile: %w", err)
	}
	return profile, nil
}

// SetDisplayName updates the stored display name and returns the fresh row.
func (s *Service) SetDisplayName(_ context.Context, id, displayName string) (domain.Profile, error) {
	if err := s.store.SetProfileDisplayName(id, displayName); err != nil {
		return domain.Profile{}, fmt.Errorf("update display name: %w", err)
	}
	profile, ok, err := s.store.GetProfile(id)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	if !ok {
		return domain.Profile{}, fmt.Errorf("profile %s not found", id)
	}
	return profile, nil
}

// UploadImage stores the object under the user's prefix and returns its
// public URL.
func (s *Service) UploadImage(ctx context.Context, userID, filename string, data []byte, contentType string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrSessionMissing
	}
	key := userID + "/" + filename
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return s.objects.PublicURL(key), nil
}

// SubscribePosts opens a realtime subscription for post inserts.
func (s *Service) SubscribePosts(ctx context.Context) (realtime.Subscription, error) {
	return s.bus.Subscribe(ctx)
}

func sessionForUser(user domain.User) domain.Session {
	return domain.Session{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName(),
	}
}
