package depot

import "errors"

var (
	// ErrConnection is returned when the document store is unreachable or
	// the connection handshake fails. The root cause is wrapped alongside it.
	ErrConnection = errors.New("depot: connection failed")

	// ErrValidation is returned when a payload fails its collection schema.
	// Invalid payloads are never sent to the store.
	ErrValidation = errors.New("depot: validation failed")

	// ErrUnauthorized is returned when a session token or credentials cannot
	// be resolved to a user. It never says which step failed.
	ErrUnauthorized = errors.New("depot: unauthorized")

	// ErrForbidden is returned when a user holds no grant for the requested
	// scope and action.
	ErrForbidden = errors.New("depot: forbidden")

	// ErrInternal is returned for unexpected failures, such as a permission
	// merge error or an unacknowledged session write.
	ErrInternal = errors.New("depot: internal error")

	// ErrNotSupported is returned by operations that are declared but not
	// wired up yet (password reset, email verification).
	ErrNotSupported = errors.New("depot: not supported")

	// ErrTimeout is returned when a store operation exceeds its deadline.
	ErrTimeout = errors.New("depot: operation timed out")

	// ErrNotFound is returned by stores when no document matches a lookup.
	ErrNotFound = errors.New("depot: not found")

	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("depot: duplicate key")

	// ErrUnacknowledged is returned when the store did not acknowledge a write.
	ErrUnacknowledged = errors.New("depot: write not acknowledged")
)
