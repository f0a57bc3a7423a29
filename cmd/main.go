package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"github.com/okian/gwrank/internal/adapters/http/api"
	"github.com/okian/gwrank/internal/adapters/http/site"
	"github.com/okian/gwrank/internal/adapters/http/swagger"
	"github.com/okian/gwrank/internal/adapters/repository"
	"github.com/okian/gwrank/internal/adapters/snapshot"
	app "github.com/okian/gwrank/internal/app"
	"github.com/okian/gwrank/internal/config"
	"github.com/okian/gwrank/pkg/logger"
	"github.com/okian/gwrank/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Default Go collectors are replaced by the system gauges below.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger format comes from config, so it is not available yet.
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		os.Exit(1)
	}
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	scheduler, err := startScheduler(ctx, cfg.StatsSchedule, svc)
	if err != nil {
		log.Error(ctx, "failed to schedule stats refresh", logger.Error(err))
		return
	}
	defer func() { <-scheduler.Stop().Done() }()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// buildService opens the store and wires the snapshotter and search cache.
func buildService(ctx context.Context, cfg *config.Config) (*app.Service, error) {
	store, err := repository.Open(ctx, cfg.DBPath,
		repository.WithBusyTimeout(time.Duration(cfg.BusyTimeoutMS)*time.Millisecond),
		repository.WithLogger(logger.Named("repository")),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	snapOpts := []snapshot.Option{
		snapshot.WithDir(cfg.SnapshotDir),
		snapshot.WithLogger(logger.Named("snapshot")),
	}
	if cfg.SnapshotS3Bucket != "" {
		client, err := snapshot.NewS3Client(ctx, snapshot.S3Config{
			Endpoint:        cfg.SnapshotS3Endpoint,
			Region:          cfg.SnapshotS3Region,
			AccessKeyID:     cfg.SnapshotS3AccessKeyID,
			SecretAccessKey: cfg.SnapshotS3SecretAccessKey,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		snapOpts = append(snapOpts, snapshot.WithUploader(client, cfg.SnapshotS3Bucket, cfg.SnapshotS3Prefix))
	}

	return app.New(
		app.WithLogger(logger.Named("service")),
		app.WithStore(store),
		app.WithSnapshotter(snapshot.New(store, cfg.DBPath, snapOpts...)),
		app.WithSearchCache(cfg.SearchCacheSize, cfg.SearchCacheTTL()),
	), nil
}

// newRouter registers the API, the HTML pages and the API docs.
func newRouter(ctx context.Context, cfg *config.Config, svc *app.Service) *mux.Router {
	r := mux.NewRouter()

	api.NewServer(svc, svc,
		api.WithMaxUploadBytes(cfg.MaxUploadBytes),
		api.WithLogger(logger.Named("api")),
	).Register(ctx, r)
	swagger.Register(ctx, r)
	site.Register(ctx, r, svc)

	return r
}

// startScheduler refreshes dataset and system gauges on schedule.
func startScheduler(ctx context.Context, schedule string, svc *app.Service) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		updateSystemMetrics()
		updateServiceMetrics(ctx, svc)
	})
	if err != nil {
		return nil, fmt.Errorf("stats schedule %q: %w", schedule, err)
	}
	c.Start()
	logger.Get().Info(ctx, "stats refresh scheduled", logger.String("schedule", schedule))
	return c, nil
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes the dataset gauges; GetStats records them.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats(ctx)
	if msg, ok := stats["error"].(string); ok {
		logger.Get().Warn(ctx, "stats refresh failed", logger.String("error", msg))
	}
}
