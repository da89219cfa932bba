package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/feichai0017/meeting-ingest/config"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
	"github.com/feichai0017/meeting-ingest/pkg/storage/minio"
	"github.com/feichai0017/meeting-ingest/pkg/storage/object"
	"github.com/feichai0017/meeting-ingest/pkg/storage/s3"
)

// SourceType names an object store an artifact can be pulled from.
type SourceType string

const (
	SourceTypeS3    SourceType = "s3"
	SourceTypeMinio SourceType = "minio"
)

var (
	ErrUnknownSource = errors.New("unknown artifact source")
	ErrNotFound      = object.ErrNotFound
)

type ObjectInfo = object.Info

// Source is a read-only view of an object store. Nothing is ever written
// back.
type Source interface {
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Get reads the object. When limit is positive at most limit+1 bytes
	// are read, so an oversized object is still detectable by the caller.
	Get(ctx context.Context, key string, limit int64) ([]byte, error)
}

// Sources holds the configured sources by type.
type Sources map[SourceType]Source

// Lookup returns the source registered under name.
func (s Sources) Lookup(name string) (Source, error) {
	src, ok := s[SourceType(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return src, nil
}

// NewSources builds a source for every enabled section of cfg.
func NewSources(ctx context.Context, log logger.Logger, cfg config.StorageConfig) (Sources, error) {
	sources := Sources{}

	if cfg.S3.Enabled() {
		src, err := s3.New(ctx, log, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to create s3 source: %w", err)
		}
		sources[SourceTypeS3] = src
	}
	if cfg.Minio.Enabled() {
		src, err := minio.New(ctx, log, cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("failed to create minio source: %w", err)
		}
		sources[SourceTypeMinio] = src
	}

	log.Info("Artifact sources configured", logger.Int("count", len(sources)))
	return sources, nil
}
