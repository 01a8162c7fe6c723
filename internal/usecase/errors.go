package usecase

import "errors"

var (
	// ErrInvalidInput marks caller mistakes such as inverted date ranges.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks lookups that matched nothing.
	ErrNotFound = errors.New("not found")
	// ErrSchemaMissing is fatal: the destination schema is absent or
	// incompatible, so no fetching may begin.
	ErrSchemaMissing = errors.New("destination schema missing")
	// ErrDependencyUnavailable marks a source adapter that could not be
	// reached at all.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
