package snapshot

import (
	"time"

	"github.com/okian/gwrank/pkg/logger"
)

// Option applies a configuration option to the Snapshotter.
type Option func(*Snapshotter)

// WithDir places snapshot files in dir instead of next to the database.
func WithDir(dir string) Option {
	return func(s *Snapshotter) {
		if dir != "" {
			s.dir = dir
		}
	}
}

// WithUploader ships every snapshot to bucket under prefix after it is written locally.
func WithUploader(u S3Uploader, bucket, prefix string) Option {
	return func(s *Snapshotter) {
		if u != nil && bucket != "" {
			s.uploader = u
			s.bucket = bucket
			s.prefix = prefix
		}
	}
}

// WithClock overrides the time source used in snapshot names.
func WithClock(now func() time.Time) Option {
	return func(s *Snapshotter) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the snapshotter logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Snapshotter) {
		if l != nil {
			s.logger = l
		}
	}
}
