package transcript

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"

	"github.com/feichai0017/meeting-ingest/internal/agent"
	"github.com/feichai0017/meeting-ingest/internal/ingest"
	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/internal/summarizer"
	"github.com/feichai0017/meeting-ingest/pkg/converters"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
	"github.com/feichai0017/meeting-ingest/pkg/storage"
	"github.com/feichai0017/meeting-ingest/pkg/storage/object"
)

// Ingester is satisfied by *ingest.Pipeline.
type Ingester interface {
	Ingest(ctx context.Context, artifact models.UploadArtifact) ingest.Outcome
}

// Guard is satisfied by *validator.Guard.
type Guard interface {
	CheckDeclared(filename string, size int64) error
	Limits() models.ValidationLimits
}

type TranscriptServiceImpl struct {
	pipeline   Ingester
	guard      Guard
	sources    storage.Sources
	summarizer summarizer.Summarizer
	converter  converters.TranscriptConverter
	logger     logger.Logger
}

// NewService wires the service. sources and sum may be nil; the matching
// operations then fail with storage.ErrUnknownSource and
// summarizer.ErrNotConfigured.
func NewService(
	pipeline Ingester,
	guard Guard,
	sources storage.Sources,
	sum summarizer.Summarizer,
	log logger.Logger,
) TranscriptService {
	return &TranscriptServiceImpl{
		pipeline:   pipeline,
		guard:      guard,
		sources:    sources,
		summarizer: sum,
		converter:  converters.NewJSONConverter(),
		logger:     log.Named("transcript"),
	}
}

func (s *TranscriptServiceImpl) Ingest(ctx context.Context, artifact models.UploadArtifact) (*converters.TranscriptDocument, error) {
	outcome := s.pipeline.Ingest(ctx, artifact)
	result, err := outcome.Result()
	if err != nil {
		return nil, err
	}

	return s.converter.Convert(converters.Source{
		RequestID: logger.RequestID(ctx),
		Filename:  artifact.Filename(),
		Size:      artifact.EffectiveSize(),
		Elapsed:   outcome.Elapsed(),
	}, result)
}

func (s *TranscriptServiceImpl) IngestUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*converters.TranscriptDocument, error) {
	artifact, err := s.readUpload(file, header)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, artifact)
}

func (s *TranscriptServiceImpl) IngestAudioUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*converters.TranscriptDocument, error) {
	format, err := agent.DetectFormat(header.Filename)
	if err != nil {
		return nil, err
	}
	if format.Category() != models.CategoryAudio {
		return nil, models.NewUnsupportedFormat(fmt.Sprintf("%s is not an audio format", format))
	}
	return s.IngestUpload(ctx, file, header)
}

// IngestObject pulls an artifact from object storage. The declared size
// from the object's metadata is checked before anything is downloaded.
func (s *TranscriptServiceImpl) IngestObject(ctx context.Context, source, key string) (*converters.TranscriptDocument, error) {
	src, err := s.sources.Lookup(source)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx, s.logger).With(
		logger.String("source", source),
		logger.String("key", key),
	)

	info, err := src.Stat(ctx, key)
	if err != nil {
		return nil, err
	}

	filename := path.Base(key)
	if err := s.guard.CheckDeclared(filename, info.Size); err != nil {
		log.Warn("Object rejected before download", logger.Int64("size", info.Size), logger.Error(err))
		return nil, err
	}

	data, err := src.Get(ctx, key, s.sizeLimit(filename))
	if err != nil {
		return nil, err
	}

	log.Info("Object fetched", logger.Int("bytes", len(data)))
	return s.Ingest(ctx, models.NewUploadArtifact(filename, data, info.Size, info.ContentType))
}

func (s *TranscriptServiceImpl) Summarize(ctx context.Context, transcript, instruction string) (string, error) {
	if s.summarizer == nil {
		return "", summarizer.ErrNotConfigured
	}
	return s.summarizer.Summarize(ctx, transcript, instruction)
}

func (s *TranscriptServiceImpl) SummarizeDOCX(ctx context.Context, transcript, instruction string) ([]byte, error) {
	summary, err := s.Summarize(ctx, transcript, instruction)
	if err != nil {
		return nil, err
	}
	return summarizer.ExportDOCX("Meeting summary", summary)
}

// readUpload rejects oversized uploads on the declared size, then reads at
// most limit+1 bytes so the guard still sees an oversized body.
func (s *TranscriptServiceImpl) readUpload(file multipart.File, header *multipart.FileHeader) (models.UploadArtifact, error) {
	if err := s.guard.CheckDeclared(header.Filename, header.Size); err != nil {
		return models.UploadArtifact{}, err
	}

	data, err := object.ReadLimited(file, s.sizeLimit(header.Filename))
	if err != nil {
		return models.UploadArtifact{}, fmt.Errorf("failed to read upload: %w", err)
	}

	return models.NewUploadArtifact(header.Filename, data, header.Size, header.Header.Get("Content-Type")), nil
}

func (s *TranscriptServiceImpl) sizeLimit(filename string) int64 {
	format, ok := models.LookupFormat(filename)
	if !ok {
		return 0
	}
	limit, _ := s.guard.Limits().SizeLimit(format.Category())
	return limit
}
