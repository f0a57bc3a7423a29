package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/gwrank/internal/loadtool"
	"github.com/okian/gwrank/pkg/logger"
)

// Default configuration constants.
const (
	defaultGuilds      = 500
	defaultEvents      = 5
	defaultSearches    = 200
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
	defaultSeed        = 1
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		guilds   = flag.Int("guilds", defaultGuilds, "Size of the synthetic guild population")
		events   = flag.Int("events", defaultEvents, "Number of events to upload")
		searches = flag.Int("searches", defaultSearches, "Number of searches to run")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent search workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", defaultSeed, "Generator seed")
		logFile  = flag.String("log", "", "Log file for run output (default: loadtest_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtool.ShowHelp()
		return
	}

	closer, err := loadtool.SetupLogging(*logFile, *verbose)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)

	cfg := &loadtool.Config{
		BaseURL:  *baseURL,
		Guilds:   *guilds,
		Events:   *events,
		Searches: *searches,
		Workers:  *workers,
		Timeout:  *timeout,
		Seed:     *seed,
		LogFile:  *logFile,
		Verbose:  *verbose,
	}

	_, err = loadtool.Run(ctx, cfg)
	cancel()
	_ = closer.Close()
	if err != nil {
		logger.Get().Error(context.Background(), "load run failed", logger.Error(err))
		os.Exit(1)
	}
}
