// Package snapshot takes point-in-time copies of the ranking database before
// each ingestion commit and optionally ships them to S3-compatible storage.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/okian/gwrank/pkg/logger"
	"github.com/okian/gwrank/pkg/metrics"
)

// Source writes a consistent copy of the committed database to dest.
type Source interface {
	Backup(ctx context.Context, dest string) error
}

// S3Uploader is the subset of the S3 client used for offsite copies.
type S3Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Snapshotter names, writes and ships snapshots.
type Snapshotter struct {
	src      Source
	dir      string
	base     string
	uploader S3Uploader
	bucket   string
	prefix   string
	now      func() time.Time
	logger   logger.Logger
}

// New creates a Snapshotter for the database file at dbPath.
func New(src Source, dbPath string, opts ...Option) *Snapshotter {
	s := &Snapshotter{
		src:  src,
		dir:  filepath.Dir(dbPath),
		base: filepath.Base(dbPath),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("snapshot")
	}
	return s
}

// Name returns the file name for a snapshot taken at t: <db file>.<unix>-<id>.
// The random suffix keeps two snapshots within the same second apart.
func (s *Snapshotter) Name(t time.Time) string {
	return fmt.Sprintf("%s.%d-%s", s.base, t.Unix(), uuid.NewString()[:8])
}

// Take writes a snapshot and returns its location, an s3:// URL when an uploader
// is configured and the local path otherwise. Every failure wraps ErrSnapshot.
func (s *Snapshotter) Take(ctx context.Context) (string, error) {
	start := time.Now()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", s.fail(ctx, fmt.Errorf("%w: create %s: %w", ErrSnapshot, s.dir, err))
	}

	name := s.Name(s.now())
	local := filepath.Join(s.dir, name)
	if err := s.src.Backup(ctx, local); err != nil {
		return "", s.fail(ctx, fmt.Errorf("%w: %w", ErrSnapshot, err))
	}

	location := local
	if s.uploader != nil {
		key := path.Join(s.prefix, name)
		if err := s.upload(ctx, local, key); err != nil {
			return "", s.fail(ctx, fmt.Errorf("%w: upload s3://%s/%s: %w", ErrSnapshot, s.bucket, key, err))
		}
		location = fmt.Sprintf("s3://%s/%s", s.bucket, key)
	}

	took := time.Since(start)
	metrics.RecordSnapshot(float64(took.Nanoseconds()) / 1e6)
	s.logger.Info(ctx, "snapshot written",
		logger.String("location", location),
		logger.Duration("took", took))
	return location, nil
}

func (s *Snapshotter) upload(ctx context.Context, local, key string) (err error) {
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	_, err = s.uploader.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("application/vnd.sqlite3"),
	})
	return err
}

func (s *Snapshotter) fail(ctx context.Context, err error) error {
	metrics.RecordSnapshotFailure()
	metrics.RecordErrorByComponent("snapshot", "take")
	s.logger.Error(ctx, "snapshot failed", logger.Error(err))
	return err
}
