package loadtool

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Guilds   int           // Size of the synthetic guild population
	Events   int           // Number of events to upload
	Searches int           // Number of searches to run after uploading
	Workers  int           // Number of concurrent search workers
	Timeout  time.Duration // HTTP request timeout
	Seed     uint64        // Seed for the population generator
	LogFile  string        // Log file for run output
	Verbose  bool          // Enable verbose logging
}

// Stats holds run statistics.
type Stats struct {
	EventsUploaded   int
	RowsUploaded     int
	SearchesRun      int
	SearchesVerified int
	SearchesFailed   int
	GroupsReturned   int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
