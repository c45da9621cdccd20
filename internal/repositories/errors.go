package repositories

import "errors"

var (
	// ErrNotFound is returned when a row does not exist, or when an update
	// is scoped to an owner that does not match.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict is returned when a uniqueness constraint is violated,
	// such as a duplicate email or a repeated event membership.
	ErrConflict = errors.New("repository: conflict")
)
