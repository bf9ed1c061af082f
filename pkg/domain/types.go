package domain

import "time"

// Session identifies the currently signed-in user. The opaque session token
// itself never leaves the gateway client.
type Session struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Author is the denormalized profile info attached to a post.
type Author struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Post is a feed entry. ID and CreatedAt are server-assigned; a post is
// immutable once created.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Author    Author    `json:"author"`
}

// Profile is the public record for a user. Its ID equals the user ID.
type Profile struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// User is the account record behind the auth surface.
type User struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"-"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// DisplayName returns the display name attached at sign-up, if any.
func (u User) DisplayName() string {
	return u.Metadata["display_name"]
}
