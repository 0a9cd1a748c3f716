package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates the write would violate a relational constraint,
	// e.g. deleting a menu item that order lines still reference.
	ErrConflict = errors.New("repository: conflict")
)
