package shared

import "errors"

var (
	// ErrNotFound signals a missing record; handlers render a 404 page for it.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned for a bad email or password at login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when a form arrives without its CSRF token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when the form token does not match the session.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
