// Package service provides the query and ingestion operations behind the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/okian/gwrank/internal/adapters/repository"
	"github.com/okian/gwrank/internal/domain/model"
	"github.com/okian/gwrank/pkg/logger"
	"github.com/okian/gwrank/pkg/metrics"
)

// Snapshotter takes a point-in-time copy of the last committed state and
// returns where it was written.
type Snapshotter interface {
	Take(ctx context.Context) (string, error)
}

// Service implements the API dependencies for the ranking history.
type Service struct {
	mu sync.RWMutex

	// writeMu serialises ingestion batches.
	writeMu sync.Mutex

	// Core components
	store     repository.Store
	snapshots Snapshotter
	cache     *expirable.LRU[string, []model.Group]

	// cacheMu guards cacheGen and orders cache writes against purges.
	cacheMu  sync.Mutex
	cacheGen uint64

	// Configuration
	cacheSize int
	cacheTTL  time.Duration

	// State
	started atomic.Bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the ranking store. Required.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSnapshotter sets the snapshotter run before every ingestion commit.
func WithSnapshotter(snap Snapshotter) Option {
	return func(s *Service) {
		if snap != nil {
			s.snapshots = snap
		}
	}
}

// WithSearchCache sizes the per-term search cache. A size of 0 disables it.
func WithSearchCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		if size >= 0 {
			s.cacheSize = size
		}
		if ttl >= 0 {
			s.cacheTTL = ttl
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		cacheSize: 1024,
		cacheTTL:  5 * time.Minute,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start checks the wiring and prepares the search cache.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started.Load() {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		return fmt.Errorf("start: %w: no store configured", ErrNotStarted)
	}
	if s.cacheSize > 0 {
		s.cache = expirable.NewLRU[string, []model.Group](s.cacheSize, nil, s.cacheTTL)
	}

	s.started.Store(true)
	s.logger.Info(ctx, "ranking service started",
		logger.Int("searchCacheSize", s.cacheSize),
		logger.Duration("searchCacheTTL", s.cacheTTL),
		logger.Bool("snapshots", s.snapshots != nil),
	)
	return nil
}

// Stop closes the store. Calling it on a stopped service is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started.Load() {
		return
	}

	s.logger.Info(context.Background(), "stopping ranking service...")

	// Wait for an in-flight batch.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.Close(); err != nil {
		s.logger.Warn(context.Background(), "closing store", logger.Error(err))
	}
	s.purgeCache()

	s.started.Store(false)
	s.logger.Info(context.Background(), "ranking service stopped")
}

// GetStats returns dataset statistics and refreshes the dataset gauges.
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"started":         s.started.Load(),
		"searchCacheSize": s.cacheSize,
	}
	if !s.started.Load() {
		return stats
	}

	if s.cache != nil {
		stats["searchCacheLen"] = s.cache.Len()
	}

	st, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Warn(ctx, "reading dataset stats", logger.Error(err))
		stats["error"] = "stats unavailable"
		return stats
	}

	stats["rows"] = st.Rows
	stats["currentParticipants"] = st.Participants
	if st.HasData {
		stats["firstEvent"] = st.Range.Min
		stats["latestEvent"] = st.Range.Max
	}

	metrics.UpdateDataset(st.Rows, st.Range.Min, st.Range.Max, st.Participants)
	return stats
}

func (s *Service) ready() error {
	if !s.started.Load() {
		return ErrNotStarted
	}
	return nil
}

// purgeCache drops every cached search and starts a new generation, so
// searches that read the store before the purge are not cached.
func (s *Service) purgeCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	s.cacheGen++
	if s.cache != nil {
		s.cache.Purge()
	}
}

func (s *Service) cacheGeneration() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGen
}

// cacheResult stores groups unless the cache was purged since gen was read.
func (s *Service) cacheResult(term string, gen uint64, groups []model.Group) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.cache == nil || s.cacheGen != gen {
		return
	}
	s.cache.Add(term, groups)
}
