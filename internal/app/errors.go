package app

import "errors"

// Validation errors are raised before any gateway call and shown to the user
// as-is.
var (
	ErrInvalidEmail             = errors.New("Please enter a valid email")
	ErrPasswordsDoNotMatch      = errors.New("Passwords do not match")
	ErrDisplayNameRequired      = errors.New("Display name is required")
	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrNotLoggedIn              = errors.New("Please log in to create a post")
	ErrTextRequired             = errors.New("Post text is required")

	// ErrConfirmationPending is surfaced when sign-up created the account but
	// the backend issued no session until the email is confirmed.
	ErrConfirmationPending = errors.New("Please confirm your email address, then log in")
)
