package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/gwrank/internal/adapters/repository"
	"github.com/okian/gwrank/internal/domain/batch"
	"github.com/okian/gwrank/internal/domain/grouping"
	"github.com/okian/gwrank/internal/domain/model"
	"github.com/okian/gwrank/internal/domain/pattern"
	"github.com/okian/gwrank/internal/domain/relevance"
	"github.com/okian/gwrank/pkg/logger"
	"github.com/okian/gwrank/pkg/metrics"
)

// GetEventRange returns the smallest and largest stored event numbers.
func (s *Service) GetEventRange(ctx context.Context) (model.EventRange, error) {
	const op = "range"
	if err := s.ready(); err != nil {
		return model.EventRange{}, err
	}
	metrics.RecordQuery(op)

	r, err := s.store.EventRange(ctx)
	switch {
	case errors.Is(err, repository.ErrNoData):
		return model.EventRange{}, ErrNoData
	case err != nil:
		return model.EventRange{}, storageErr(op, err)
	}
	return r, nil
}

// Search returns the guilds taking part in the latest event whose name ever
// matched term (every current guild for an empty term), each with its full
// history newest first, most relevant first.
// The returned groups may be shared with the cache and must not be modified.
func (s *Service) Search(ctx context.Context, term string) ([]model.Group, error) {
	const op = "search"
	if err := s.ready(); err != nil {
		return nil, err
	}
	metrics.RecordQuery(op)
	start := time.Now()

	if s.cache != nil {
		if groups, ok := s.cache.Get(term); ok {
			metrics.RecordSearchCache(true)
			metrics.RecordSearch(float64(time.Since(start).Nanoseconds())/1e6, len(groups))
			return groups, nil
		}
		metrics.RecordSearchCache(false)
	}
	gen := s.cacheGeneration()

	rows, err := s.store.SearchByName(ctx, pattern.Escape(term))
	if err != nil {
		return nil, storageErr(op, err)
	}

	if !grouping.Sorted(rows, guildOf) {
		s.logger.Warn(ctx, "search rows not ordered by guild", logger.String("term", term))
	}

	groups := make([]model.Group, 0)
	for _, g := range grouping.By(rows, guildOf) {
		groups = append(groups, model.Group{GuildID: g.Key, Entries: g.Rows})
	}

	ranked, err := relevance.Rank(groups, term)
	if err != nil {
		metrics.RecordInvariantError()
		s.logger.Error(ctx, "ranking search results", logger.String("term", term), logger.Error(err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvariant, err)
	}

	s.cacheResult(term, gen, ranked)

	took := time.Since(start)
	metrics.RecordSearch(float64(took.Nanoseconds())/1e6, len(ranked))
	s.logger.Debug(ctx, "search",
		logger.String("term", term),
		logger.Int("rows", len(rows)),
		logger.Int("groups", len(ranked)),
		logger.Duration("took", took))
	return ranked, nil
}

// FindByID returns every entry of one guild, newest event first.
// An unknown id yields an empty slice.
func (s *Service) FindByID(ctx context.Context, guildID int64) ([]model.Entry, error) {
	const op = "info"
	if err := s.ready(); err != nil {
		return nil, err
	}
	metrics.RecordQuery(op)

	rows, err := s.store.History(ctx, guildID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if rows == nil {
		rows = []model.Entry{}
	}
	return rows, nil
}

// GetEvent returns the leaderboard of one event split into seed and regular
// entries, each ordered by rank. An unknown event yields empty buckets.
func (s *Service) GetEvent(ctx context.Context, num int) (model.EventBoard, error) {
	const op = "full"
	if err := s.ready(); err != nil {
		return model.EventBoard{}, err
	}
	metrics.RecordQuery(op)

	rows, err := s.store.Event(ctx, num)
	if err != nil {
		return model.EventBoard{}, storageErr(op, err)
	}
	return boardOf(num, rows), nil
}

// ExportEvent renders one event in the batch upload format.
// Returns ErrNoData when the event has no rows.
func (s *Service) ExportEvent(ctx context.Context, num int) ([]byte, error) {
	const op = "export"
	if err := s.ready(); err != nil {
		return nil, err
	}
	metrics.RecordQuery(op)

	rows, err := s.store.Event(ctx, num)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %d: %w", op, num, ErrNoData)
	}

	out, err := batch.Format(rows)
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, num, err)
	}
	return out, nil
}

func boardOf(num int, rows []model.Entry) model.EventBoard {
	board := model.EventBoard{
		Num:     num,
		Seed:    []model.Entry{},
		Regular: []model.Entry{},
	}
	for _, g := range grouping.By(rows, seedOf) {
		if g.Key {
			board.Seed = append(board.Seed, g.Rows...)
		} else {
			board.Regular = append(board.Regular, g.Rows...)
		}
	}
	return board
}

func guildOf(e model.Entry) int64 { return e.GuildID }

func seedOf(e model.Entry) bool { return e.IsSeed }
