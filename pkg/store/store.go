package store

import (
	"errors"

	"socialfeed/pkg/domain"
)

// ErrProfileExists is returned by CreateProfile when a profile with the same
// ID already exists, e.g. because a concurrent client or a server-side trigger
// created it first.
var ErrProfileExists = errors.New("profile already exists")

// Store defines persistence operations for users, posts, and profiles.
type Store interface {
	// users
	SaveUser(user domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// posts; listings are newest-first with author profile info joined in
	SavePost(post domain.Post) error
	ListPosts() ([]domain.Post, error)
	ListPostsByAuthor(authorID string) ([]domain.Post, error)

	// profiles
	GetProfile(id string) (domain.Profile, bool, error)
	CreateProfile(profile domain.Profile) error
	SetProfileDisplayName(id, displayName string) error
}

// SessionStore issues and resolves session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
