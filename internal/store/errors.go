package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUnavailable is returned by history lookups when no database is configured.
	ErrUnavailable = errors.New("history storage is not configured")

	// ErrChatRecordNotFound indicates that the requested conversation does not exist.
	ErrChatRecordNotFound = fmt.Errorf("%w: chat record", ErrNotFound)
)
