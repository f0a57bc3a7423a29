// Package repository defines the ranking store interface and its SQLite implementation.
package repository

import (
	"context"

	"github.com/okian/gwrank/internal/domain/model"
)

// Stats summarises the stored dataset.
type Stats struct {
	Rows         int
	Participants int
	Range        model.EventRange
	HasData      bool
}

// Store provides read access to rankings and a unit of work for writes.
// Each call acquires a pooled connection and releases it before returning.
type Store interface {
	// EventRange returns the min and max event number. Returns ErrNoData on an empty store.
	EventRange(ctx context.Context) (model.EventRange, error)

	// SearchByName returns every row of every current participant whose name
	// ever matched pattern (a LIKE pattern using the '!' escape character).
	// Rows are ordered by guild id ascending, then event number descending.
	SearchByName(ctx context.Context, pattern string) ([]model.Entry, error)

	// History returns the rows of one guild, newest event first.
	History(ctx context.Context, guildID int64) ([]model.Entry, error)

	// Event returns the rows of one event, seed entries first, each class by rank ascending.
	Event(ctx context.Context, num int) ([]model.Entry, error)

	// Begin opens a write unit of work.
	Begin(ctx context.Context) (Tx, error)

	// Backup writes a consistent copy of the committed database to dest, which
	// must not exist yet.
	Backup(ctx context.Context, dest string) error

	// Stats returns dataset counters.
	Stats(ctx context.Context) (Stats, error)

	Close() error
}

// Tx is an all-or-nothing unit of work. Nothing staged is visible to readers
// until Commit returns nil; Rollback after Commit is a no-op.
type Tx interface {
	Upsert(ctx context.Context, e model.Entry) error
	Commit() error
	Rollback() error
}
