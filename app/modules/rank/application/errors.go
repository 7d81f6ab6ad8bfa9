package rankservice

import "errors"

var (
	// ErrInvalidTierTable is returned when the tier table cannot classify every
	// non-negative total. Startup fails on it.
	ErrInvalidTierTable = errors.New("invalid rank tier table")

	// ErrInvariantViolation means a progress computation produced a negative
	// remainder, which only an inconsistent tier table can cause.
	ErrInvariantViolation = errors.New("rank progress invariant violated")
)
