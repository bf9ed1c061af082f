package store

import (
	"sort"
	"sync"

	"socialfeed/pkg/domain"
)

// MemoryStore keeps rows in-process. Used by tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User // key: user ID
	email    map[string]string      // email -> user ID
	posts    []domain.Post          // insertion order
	profiles map[string]domain.Profile
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		email:    make(map[string]string),
		profiles: make(map[string]domain.Profile),
	}
}

// SaveUser registers a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// SavePost stores a post record.
func (m *MemoryStore) SavePost(p domain.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = append(m.posts, p)
	return nil
}

// ListPosts returns all posts newest-first with author info joined in.
func (m *MemoryStore) ListPosts() ([]domain.Post, error) {
	return m.listPosts(""), nil
}

// ListPostsByAuthor returns one author's posts newest-first.
func (m *MemoryStore) ListPostsByAuthor(authorID string) ([]domain.Post, error) {
	return m.listPosts(authorID), nil
}

func (m *MemoryStore) listPosts(authorID string) []domain.Post {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Post, 0, len(m.posts))
	for _, p := range m.posts {
		if authorID != "" && p.UserID != authorID {
			continue
		}
		if profile, ok := m.profiles[p.UserID]; ok {
			p.Author = domain.Author{Email: profile.Email, DisplayName: profile.DisplayName}
		}
		res = append(res, p)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res
}

// GetProfile retrieves a profile.
func (m *MemoryStore) GetProfile(id string) (domain.Profile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	return p, ok, nil
}

// CreateProfile inserts a profile, failing with ErrProfileExists on collision.
func (m *MemoryStore) CreateProfile(p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.ID]; ok {
		return ErrProfileExists
	}
	m.profiles[p.ID] = p
	return nil
}

// SetProfileDisplayName updates the stored display name.
func (m *MemoryStore) SetProfileDisplayName(id, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil
	}
	p.DisplayName = displayName
	m.profiles[id] = p
	return nil
}
