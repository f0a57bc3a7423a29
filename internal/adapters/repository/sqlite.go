package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"go.uber.org/multierr"

	"github.com/okian/gwrank/internal/domain/model"
	"github.com/okian/gwrank/pkg/logger"
	"github.com/okian/gwrank/pkg/metrics"
)

const (
	driverName          = "sqlite3"
	defaultBusyTimeout  = 5 * time.Second
	defaultMaxOpenConns = 8
	backupFileMode      = 0o600
)

// SQLiteStore is a Store backed by a single SQLite database file in WAL mode.
// Writers take the database lock when the transaction begins, so concurrent
// ingestions serialise inside SQLite even across processes.
type SQLiteStore struct {
	db           *sql.DB
	logger       logger.Logger
	busyTimeout  time.Duration
	maxOpenConns int
	closed       atomic.Bool
}

var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := newStore(nil, opts...)

	db, err := sql.Open(driverName, s.dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	s.db = db

	if err := db.PingContext(ctx); err != nil {
		return nil, multierr.Append(fmt.Errorf("ping %s: %w", path, err), db.Close())
	}
	if err := s.Migrate(ctx); err != nil {
		return nil, multierr.Append(err, db.Close())
	}

	s.logger.Info(ctx, "sqlite store opened",
		logger.String("path", path),
		logger.Duration("busy_timeout", s.busyTimeout),
		logger.Int("max_open_conns", s.maxOpenConns))
	return s, nil
}

// New wraps an already opened database handle. The schema is not touched.
func New(db *sql.DB, opts ...Option) *SQLiteStore {
	return newStore(db, opts...)
}

func newStore(db *sql.DB, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{
		db:           db,
		busyTimeout:  defaultBusyTimeout,
		maxOpenConns: defaultMaxOpenConns,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("repository")
	}
	return s
}

func (s *SQLiteStore) dsn(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_txlock=immediate",
		path, s.busyTimeout.Milliseconds())
}

// Migrate creates the rankings table, its indexes and the cur_gw view.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// EventRange implements Store.
func (s *SQLiteStore) EventRange(ctx context.Context) (model.EventRange, error) {
	const op = "range"
	start := time.Now()

	if s.closed.Load() {
		return model.EventRange{}, ErrClosed
	}

	var lo, hi sql.NullInt64
	err := s.db.QueryRowContext(ctx, rangeQuery).Scan(&lo, &hi)
	s.observe(op, start, err)
	if err != nil {
		return model.EventRange{}, fmt.Errorf("%s: %w", op, err)
	}
	if !lo.Valid || !hi.Valid {
		return model.EventRange{}, ErrNoData
	}
	return model.EventRange{Min: int(lo.Int64), Max: int(hi.Int64)}, nil
}

// SearchByName implements Store.
func (s *SQLiteStore) SearchByName(ctx context.Context, pattern string) ([]model.Entry, error) {
	return s.queryEntries(ctx, "search", searchQuery, pattern)
}

// History implements Store.
func (s *SQLiteStore) History(ctx context.Context, guildID int64) ([]model.Entry, error) {
	return s.queryEntries(ctx, "history", historyQuery, guildID)
}

// Event implements Store.
func (s *SQLiteStore) Event(ctx context.Context, num int) ([]model.Entry, error) {
	return s.queryEntries(ctx, "event", eventQuery, num)
}

func (s *SQLiteStore) queryEntries(ctx context.Context, op, query string, args ...any) ([]model.Entry, error) {
	start := time.Now()

	if s.closed.Load() {
		return nil, ErrClosed
	}

	entries, err := s.scanEntries(ctx, query, args...)
	s.observe(op, start, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

func (s *SQLiteStore) scanEntries(ctx context.Context, query string, args ...any) ([]model.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Entry
	for rows.Next() {
		var (
			e      model.Entry
			points sql.NullInt64
		)
		if err := rows.Scan(&e.EventNum, &e.IsSeed, &e.Name, &e.Rank, &points, &e.GuildID); err != nil {
			return nil, err
		}
		if points.Valid {
			e.Points = model.Int64Ptr(points.Int64)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Begin implements Store.
func (s *SQLiteStore) Begin(ctx context.Context) (Tx, error) {
	const op = "begin"
	start := time.Now()

	if s.closed.Load() {
		return nil, ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	s.observe(op, start, err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sqliteTx{tx: tx, store: s}, nil
}

// Backup implements Store. An existing dest is never overwritten; the error
// then wraps fs.ErrExist.
func (s *SQLiteStore) Backup(ctx context.Context, dest string) error {
	const op = "backup"
	start := time.Now()

	if s.closed.Load() {
		return ErrClosed
	}

	// VACUUM INTO writes into an existing empty file, so claim the name first.
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, backupFileMode)
	if err != nil {
		s.observe(op, start, err)
		return fmt.Errorf("%s to %s: %w", op, dest, err)
	}
	if err := f.Close(); err != nil {
		s.observe(op, start, err)
		return multierr.Append(fmt.Errorf("%s to %s: %w", op, dest, err), os.Remove(dest))
	}

	_, err = s.db.ExecContext(ctx, backupQuery, dest)
	s.observe(op, start, err)
	if err != nil {
		return multierr.Append(fmt.Errorf("%s to %s: %w", op, dest, err), os.Remove(dest))
	}
	return nil
}

// Stats implements Store.
func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	const op = "stats"
	start := time.Now()

	if s.closed.Load() {
		return Stats{}, ErrClosed
	}

	var (
		st     Stats
		lo, hi sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, statsQuery).Scan(&st.Rows, &st.Participants, &lo, &hi)
	s.observe(op, start, err)
	if err != nil {
		return Stats{}, fmt.Errorf("%s: %w", op, err)
	}
	if lo.Valid && hi.Valid {
		st.HasData = true
		st.Range = model.EventRange{Min: int(lo.Int64), Max: int(hi.Int64)}
	}
	return st, nil
}

// Close releases the connection pool. Calling it twice is safe.
func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) observe(op string, start time.Time, err error) {
	metrics.RecordStorageLatency(op, float64(time.Since(start).Nanoseconds())/1e6)
	if err != nil {
		metrics.RecordStorageError(op)
		metrics.RecordErrorByComponent("repository", op)
	}
}

type sqliteTx struct {
	tx    *sql.Tx
	store *SQLiteStore
	rows  int
}

func (t *sqliteTx) Upsert(ctx context.Context, e model.Entry) error {
	var points sql.NullInt64
	if e.Points != nil {
		points = sql.NullInt64{Int64: *e.Points, Valid: true}
	}
	if _, err := t.tx.ExecContext(ctx, upsertQuery, e.EventNum, e.Rank, e.Name, points, e.GuildID, e.IsSeed); err != nil {
		metrics.RecordStorageError("upsert")
		return fmt.Errorf("upsert (%d, %d): %w", e.EventNum, e.GuildID, err)
	}
	t.rows++
	return nil
}

func (t *sqliteTx) Commit() error {
	start := time.Now()
	err := t.tx.Commit()
	t.store.observe("commit", start, err)
	if err != nil {
		// A failed COMMIT can leave the transaction open in SQLite.
		return multierr.Append(fmt.Errorf("commit %d rows: %w", t.rows, err), t.Rollback())
	}
	return nil
}

func (t *sqliteTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
