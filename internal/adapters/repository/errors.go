package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNoData = errors.New("no ranking data")
	ErrClosed = errors.New("store is closed")
)
