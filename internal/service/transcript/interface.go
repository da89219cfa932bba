package transcript

import (
	"context"
	"mime/multipart"

	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/pkg/converters"
)

type TranscriptService interface {
	// Ingest runs an artifact already in memory through the pipeline.
	Ingest(ctx context.Context, artifact models.UploadArtifact) (*converters.TranscriptDocument, error)
	IngestUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*converters.TranscriptDocument, error)
	// IngestAudioUpload is IngestUpload restricted to audio formats.
	IngestAudioUpload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*converters.TranscriptDocument, error)
	IngestObject(ctx context.Context, source, key string) (*converters.TranscriptDocument, error)
	Summarize(ctx context.Context, transcript, instruction string) (string, error)
	SummarizeDOCX(ctx context.Context, transcript, instruction string) ([]byte, error)
}
