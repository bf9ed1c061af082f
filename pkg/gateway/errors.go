package gateway

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not
	// match. The message is shown to end users as-is and must not enable
	// account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect email address or password")

	// ErrEmailAlreadyExists is returned when signing up with a taken email.
	ErrEmailAlreadyExists = errors.New("User already registered")

	// ErrSessionMissing marks calls that require a live session when none
	// exists or the stored token no longer resolves. The profile container
	// matches this to force a logout.
	ErrSessionMissing = errors.New("Auth session missing")

	// ErrProfileExists is returned by CreateProfile on an ID collision;
	// callers recover by re-fetching the existing row.
	ErrProfileExists = errors.New("profile already exists")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrUserIDRequired           = errors.New("User ID is required")
	ErrPostTextRequired         = errors.New("Post text is required")
)
