package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by the service. Callers map them with errors.Is.
var (
	// ErrBadRequest marks input the caller must fix.
	ErrBadRequest = errors.New("bad request")

	// ErrBadFormat marks an ingestion batch that failed to parse. It is a bad request.
	ErrBadFormat = fmt.Errorf("%w: invalid data format", ErrBadRequest)

	// ErrNoData is returned by range lookups on an empty store.
	ErrNoData = errors.New("no data")

	// ErrStorage wraps failures of the store or snapshotter.
	ErrStorage = errors.New("storage failure")

	// ErrInvariant signals a broken internal invariant.
	ErrInvariant = errors.New("invariant violated")

	// ErrNotStarted is returned when an operation runs before Start.
	ErrNotStarted = errors.New("service not started")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
