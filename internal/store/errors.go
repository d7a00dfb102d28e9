package store

import "errors"

var (
	// ErrNotFound is returned when an item doesn't exist.
	ErrNotFound = errors.New("store: item not found")

	// ErrAlreadyExists is returned when a conditional put finds an existing item.
	ErrAlreadyExists = errors.New("store: item already exists")

	// ErrConditionFailed is returned when a write's condition expression
	// rejects the write for a reason other than a duplicate identity.
	ErrConditionFailed = errors.New("store: condition failed")

	// ErrBadCursor is returned when a pagination cursor cannot be decoded.
	ErrBadCursor = errors.New("store: malformed pagination cursor")
)
