package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"socialfeed/pkg/domain"
	"socialfeed/pkg/gateway"
	"socialfeed/pkg/realtime"
	"socialfeed/pkg/storage"
	"socialfeed/pkg/store"
)

// fakeGateway records calls and delegates to per-method hooks. Unset hooks
// return benign defaults.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	authenticateFn   func(email, password string) (domain.Session, error)
	createAccountFn  func(email, password, displayName string) (gateway.SignUpResult, error)
	currentSessionFn func() (domain.Session, bool, error)
	endSessionFn     func() error
	insertPostFn     func(userID, text, imageURL string) (domain.Post, error)
	listPostsFn      func(filter gateway.PostFilter) ([]domain.Post, error)
	getProfileFn     func(id string) (domain.Profile, bool, error)
	createProfileFn  func(profile domain.Profile) (domain.Profile, error)
	setDisplayNameFn func(id, displayName string) (domain.Profile, error)
	uploadImageFn    func(userID, filename string, data []byte, contentType string) (string, error)
	subscribeFn      func() (realtime.Subscription, error)
}

func (f *fakeGateway) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeGateway) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeGateway) Authenticate(_ context.Context, email, password string) (domain.Session, error) {
	f.record("Authenticate")
	if f.authenticateFn != nil {
		return f.authenticateFn(email, password)
	}
	return domain.Session{UserID: "u1", Email: email}, nil
}

func (f *fakeGateway) CreateAccount(_ context.Context, email, password, displayName string) (gateway.SignUpResult, error) {
	f.record("CreateAccount")
	if f.createAccountFn != nil {
		return f.createAccountFn(email, password, displayName)
	}
	session := domain.Session{UserID: "u1", Email: email, DisplayName: displayName}
	return gateway.SignUpResult{UserID: "u1", Email: email, Session: &session}, nil
}

func (f *fakeGateway) CurrentSession(_ context.Context) (domain.Session, bool, error) {
	f.record("CurrentSession")
	if f.currentSessionFn != nil {
		return f.currentSessionFn()
	}
	return domain.Session{}, false, nil
}

func (f *fakeGateway) EndSession(_ context.Context) error {
	f.record("EndSession")
	if f.endSessionFn != nil {
		return f.endSessionFn()
	}
	return nil
}

func (f *fakeGateway) InsertPost(_ context.Context, userID, text, imageURL string) (domain.Post, error) {
	f.record("InsertPost")
	if f.insertPostFn != nil {
		return f.insertPostFn(userID, text, imageURL)
	}
	return domain.Post{ID: "p1", UserID: userID, Text: text, ImageURL: imageURL, CreatedAt: time.Now().UTC()}, nil
}

func (f *fakeGateway) ListPosts(_ context.Context, filter gateway.PostFilter) ([]domain.Post, error) {
	f.record("ListPosts")
	if f.listPostsFn != nil {
		return f.listPostsFn(filter)
	}
	return nil, nil
}

func (f *fakeGateway) GetProfile(_ context.Context, id string) (domain.Profile, bool, error) {
	f.record("GetProfile")
	if f.getProfileFn != nil {
		return f.getProfileFn(id)
	}
	return domain.Profile{}, false, nil
}

func (f *fakeGateway) CreateProfile(_ context.Context, profile domain.Profile) (domain.Profile, error) {
	f.record("CreateProfile")
	if f.createProfileFn != nil {
		return f.createProfileFn(profile)
	}
	return profile, nil
}

func (f *fakeGateway) SetDisplayName(_ context.Context, id, displayName string) (domain.Profile, error) {
	f.record("SetDisplayName")
	if f.setDisplayNameFn != nil {
		return f.setDisplayNameFn(id, displayName)
	}
	return domain.Profile{ID: id, DisplayName: displayName}, nil
}

func (f *fakeGateway) UploadImage(_ context.Context, userID, filename string, data []byte, contentType string) (string, error) {
	f.record("UploadImage")
	if f.uploadImageFn != nil {
		return f.uploadImageFn(userID, filename, data, contentType)
	}
	return "https://objects.test/post-images/" + userID + "/" + filename, nil
}

func (f *fakeGateway) SubscribePosts(ctx context.Context) (realtime.Subscription, error) {
	f.record("SubscribePosts")
	if f.subscribeFn != nil {
		return f.subscribeFn()
	}
	return realtime.NewMemoryBus().Subscribe(ctx)
}

// testEnv wires the containers to a real gateway service over in-memory
// backends.
type testEnv struct {
	svc  *gateway.Service
	auth *AuthContainer
	feed *FeedContainer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	svc, err := gateway.New(gateway.Config{
		Store:    store.NewMemoryStore(),
		Sessions: store.NewJWTSessionStore("test-secret", time.Hour),
		Objects:  storage.NewMemoryObjectStore("post-images"),
		Bus:      realtime.NewMemoryBus(),
	})
	if err != nil {
		t.Fatalf("new gateway service: %v", err)
	}
	return &testEnv{
		svc:  svc,
		auth: NewAuthContainer(svc),
		feed: NewFeedContainer(svc),
	}
}

// signUpAndLogin provisions an account and authenticates the container.
func (e *testEnv) signUpAndLogin(t *testing.T, email, password, displayName string) domain.Session {
	t.Helper()
	ctx := context.Background()
	if _, err := e.svc.CreateAccount(ctx, email, password, displayName); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := e.auth.Login(ctx, email, password); err != nil {
		t.Fatalf("login: %v", err)
	}
	session, ok := e.auth.Session()
	if !ok {
		t.Fatalf("expected a session after login")
	}
	return session
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
