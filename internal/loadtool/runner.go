package loadtool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gwrank/internal/domain/batch"
	"github.com/okian/gwrank/pkg/logger"
)

// ErrVerification is returned by Run when any check failed.
var ErrVerification = errors.New("verification failed")

// Run executes a complete load run against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("guilds", cfg.Guilds),
		logger.Int("events", cfg.Events),
		logger.Int("searches", cfg.Searches),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := NewClient(cfg.BaseURL, cfg.Timeout)

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	before, _, err := client.Range(ctx)
	if err != nil {
		return stats, fmt.Errorf("initial range: %w", err)
	}

	pop := NewPopulation(cfg.Guilds, cfg.Seed)
	if err := uploadEvents(ctx, client, cfg, pop, before.Max, stats); err != nil {
		return stats, fmt.Errorf("upload failed: %w", err)
	}

	if err := checkRange(ctx, client, before, cfg.Events); err != nil {
		return stats, err
	}

	if cfg.Events > 0 {
		board, err := client.Full(ctx, before.Max+cfg.Events)
		if err != nil {
			return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
		}
		if err := verifyBoard(board, pop.Latest()); err != nil {
			return stats, fmt.Errorf("%w: %w", ErrVerification, err)
		}
	}

	runSearches(ctx, client, cfg, pop, stats)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.SearchesFailed > 0 {
		return stats, fmt.Errorf("%w: %d of %d searches", ErrVerification, stats.SearchesFailed, stats.SearchesRun)
	}
	log.Info(ctx, "load run completed successfully")
	return stats, nil
}

func uploadEvents(ctx context.Context, client *Client, cfg *Config, pop *Population, base int, stats *Stats) error {
	for i := range cfg.Events {
		entries := pop.NextEvent()
		text, err := batch.Format(entries)
		if err != nil {
			return err
		}

		resp, err := client.Upload(ctx, string(text))
		if err != nil {
			return fmt.Errorf("event %d: %w", i+1, err)
		}
		if want := base + i + 1; resp.EventNum != want || resp.Rows != len(entries) {
			return fmt.Errorf("%w: upload stored event %d with %d rows, want event %d with %d rows",
				ErrVerification, resp.EventNum, resp.Rows, want, len(entries))
		}

		stats.EventsUploaded++
		stats.RowsUploaded += resp.Rows
		logger.Get().Debug(ctx, "event uploaded",
			logger.Int("event", resp.EventNum),
			logger.Int("rows", resp.Rows),
			logger.String("batchID", resp.BatchID))
	}
	return nil
}

func checkRange(ctx context.Context, client *Client, before rangeResponse, events int) error {
	after, ok, err := client.Range(ctx)
	if err != nil {
		return fmt.Errorf("final range: %w", err)
	}
	if events == 0 {
		return nil
	}
	if !ok || after.Max != before.Max+events {
		return fmt.Errorf("%w: range max %d after %d uploads, want %d",
			ErrVerification, after.Max, events, before.Max+events)
	}
	if before.Max == 0 && after.Min != 1 {
		return fmt.Errorf("%w: range min %d on a fresh store", ErrVerification, after.Min)
	}
	return nil
}

func runSearches(ctx context.Context, client *Client, cfg *Config, pop *Population, stats *Stats) {
	terms := pop.Terms(cfg.Searches)
	current := pop.Current()
	expected := make([]map[int64]bool, len(terms))
	for i, t := range terms {
		expected[i] = pop.Matching(t)
	}

	var (
		verified int64
		failed   int64
		groups   int64
	)

	workers := max(1, cfg.Workers)
	idx := make(chan int, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				resp, err := client.Search(ctx, terms[i])
				if err == nil {
					atomic.AddInt64(&groups, int64(len(resp.Result)))
					err = verifySearch(terms[i], resp, current, expected[i])
				}
				if err != nil {
					atomic.AddInt64(&failed, 1)
					logger.Get().Warn(ctx, "search check failed", logger.String("term", terms[i]), logger.Error(err))
					continue
				}
				atomic.AddInt64(&verified, 1)
			}
		}()
	}

	go func() {
		defer close(idx)
		for i := range terms {
			select {
			case <-ctx.Done():
				return
			case idx <- i:
			}
		}
	}()

	wg.Wait()

	stats.SearchesVerified = int(verified)
	stats.SearchesFailed = int(failed)
	stats.SearchesRun = stats.SearchesVerified + stats.SearchesFailed
	stats.GroupsReturned = int(groups)
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, searchesPerSecond float64
	if stats.SearchesRun > 0 {
		successRate = float64(stats.SearchesVerified) / float64(stats.SearchesRun) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		searchesPerSecond = float64(stats.SearchesRun) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("eventsUploaded", stats.EventsUploaded),
		logger.Int("rowsUploaded", stats.RowsUploaded),
		logger.Int("searchesRun", stats.SearchesRun),
		logger.Int("searchesVerified", stats.SearchesVerified),
		logger.Int("searchesFailed", stats.SearchesFailed),
		logger.Int("groupsReturned", stats.GroupsReturned),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("searchesPerSecond", searchesPerSecond))
}
