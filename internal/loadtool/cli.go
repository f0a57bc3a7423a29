package loadtool

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/gwrank/pkg/logger"
)

const logFilePermission = 0600

// SetupLogging sends log output to stdout and logFile. An empty logFile gets
// a timestamped name. The returned closer releases the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "loadtest_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}

	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return file, nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`GW Rank Load Tool
=================

Uploads synthetic events to a running service, runs concurrent searches
and checks the answers.

Usage:
  go run ./cmd/gw-loadtest [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -guilds int
        Size of the synthetic guild population (default 500)
  -events int
        Number of events to upload (default 5)
  -searches int
        Number of searches to run (default 200)
  -workers int
        Number of concurrent search workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed uint
        Generator seed (default 1)
  -log string
        Log file for run output (default: loadtest_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run against a local service
  go run ./cmd/gw-loadtest

  # Larger population, more searches
  go run ./cmd/gw-loadtest -guilds 5000 -events 20 -searches 2000 -workers 16
`)
}
