package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/okian/gwrank/internal/adapters/repository"
	"github.com/okian/gwrank/internal/domain/batch"
	"github.com/okian/gwrank/pkg/logger"
	"github.com/okian/gwrank/pkg/metrics"
)

// IngestResult describes a committed batch.
type IngestResult struct {
	BatchID  string
	EventNum int
	Rows     int
	Snapshot string
}

// Ingest stores text as the next event (current max + 1, or 1 on an empty
// store). Either every record of the batch is committed or none is.
func (s *Service) Ingest(ctx context.Context, text string) (IngestResult, error) {
	if err := s.ready(); err != nil {
		return IngestResult{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	latest, err := s.latestEvent(ctx)
	if err != nil {
		return IngestResult{}, err
	}
	return s.ingest(ctx, latest+1, text)
}

// IngestAt stores text as event num, overwriting rows with the same guild id.
// num must be an existing event or the next one.
func (s *Service) IngestAt(ctx context.Context, num int, text string) (IngestResult, error) {
	if err := s.ready(); err != nil {
		return IngestResult{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	latest, err := s.latestEvent(ctx)
	if err != nil {
		return IngestResult{}, err
	}
	if num < 1 || num > latest+1 {
		return IngestResult{}, fmt.Errorf("ingest: %w: event %d outside [1, %d]", ErrBadRequest, num, latest+1)
	}
	return s.ingest(ctx, num, text)
}

func (s *Service) latestEvent(ctx context.Context) (int, error) {
	r, err := s.store.EventRange(ctx)
	switch {
	case errors.Is(err, repository.ErrNoData):
		return 0, nil
	case err != nil:
		return 0, storageErr("ingest", err)
	}
	return r.Max, nil
}

// ingest runs with writeMu held.
func (s *Service) ingest(ctx context.Context, num int, text string) (IngestResult, error) {
	start := time.Now()
	res := IngestResult{BatchID: uuid.NewString(), EventNum: num}
	log := s.logger.Named("ingest")

	entries, err := batch.Parse(text)
	if err != nil {
		s.recordIngest(metrics.OutcomeBadFormat, 0, start)
		log.Warn(ctx, "rejected batch",
			logger.String("batch_id", res.BatchID),
			logger.Int("event", num),
			logger.Error(err))
		return IngestResult{}, fmt.Errorf("%w: %w", ErrBadFormat, err)
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		s.recordIngest(metrics.OutcomeStorage, 0, start)
		return IngestResult{}, storageErr("ingest", err)
	}

	for _, e := range entries {
		e.EventNum = num
		if err := tx.Upsert(ctx, e); err != nil {
			s.recordIngest(metrics.OutcomeStorage, 0, start)
			return IngestResult{}, storageErr("ingest", multierr.Append(err, tx.Rollback()))
		}
	}
	res.Rows = len(entries)

	if s.snapshots != nil {
		loc, err := s.snapshots.Take(ctx)
		if err != nil {
			s.recordIngest(metrics.OutcomeSnapshot, 0, start)
			return IngestResult{}, storageErr("ingest", multierr.Append(err, tx.Rollback()))
		}
		res.Snapshot = loc
	}

	if err := tx.Commit(); err != nil {
		s.recordIngest(metrics.OutcomeStorage, 0, start)
		return IngestResult{}, storageErr("ingest", err)
	}

	s.purgeCache()
	s.recordIngest(metrics.OutcomeSuccess, res.Rows, start)
	log.Info(ctx, "batch committed",
		logger.String("batch_id", res.BatchID),
		logger.Int("event", res.EventNum),
		logger.Int("rows", res.Rows),
		logger.String("snapshot", res.Snapshot),
		logger.Duration("took", time.Since(start)))
	return res, nil
}

func (s *Service) recordIngest(outcome string, rows int, start time.Time) {
	metrics.RecordIngest(outcome, rows, float64(time.Since(start).Nanoseconds())/1e6)
}
