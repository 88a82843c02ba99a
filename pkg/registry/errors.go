package registry

import "errors"

var (
	// ErrNameTooLong is returned when a metric name exceeds MaxNameLen
	// bytes. The operation is rejected before any lock is taken.
	ErrNameTooLong = errors.New("registry: metric name longer than 127 bytes")

	// ErrCapacityExceeded is returned by GetOrCreate when a new name is
	// requested and the live-entry count has already reached the
	// admission limit. Existing names are unaffected.
	ErrCapacityExceeded = errors.New("registry: admission limit reached")

	// ErrNotAttached is returned by GetOrCreate on a registry handle
	// with no attached region.
	ErrNotAttached = errors.New("registry: no region attached")
)
