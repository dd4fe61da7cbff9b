package domain

import "errors"

// Error kinds raised by the index and analysis code. Callers match them with
// errors.Is; every returned error wraps exactly one of these.
var (
	// ErrRegionOutOfBounds covers coordinate/axis mismatches, regions that
	// select no grid cells, and selections whose weights sum to zero.
	ErrRegionOutOfBounds = errors.New("region out of bounds")

	// ErrInsufficientHistory means the eruption index leaves fewer months
	// before it than the pre-eruption window needs.
	ErrInsufficientHistory = errors.New("insufficient pre-eruption history")

	// ErrInsufficientSample means a statistical comparison had fewer than two
	// members on one side, or no variance to test against.
	ErrInsufficientSample = errors.New("insufficient sample")

	// ErrInsufficientRecord means a window extends past the end of the record.
	ErrInsufficientRecord = errors.New("window exceeds record")

	ErrMissingTimeAxis  = errors.New("missing time axis")
	ErrGridMismatch     = errors.New("grid mismatch")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidField     = errors.New("invalid field")
)
