package converters

import (
	"errors"
	"time"

	"github.com/feichai0017/meeting-ingest/internal/models"
)

var ErrNoTranscript = errors.New("no transcript to convert")

// TranscriptConverter turns an extraction result into the response body.
type TranscriptConverter interface {
	Convert(src Source, result *models.ExtractionResult) (*TranscriptDocument, error)
}

// Source describes where a result came from and how long it took.
type Source struct {
	RequestID string
	Filename  string
	Size      int64
	Elapsed   time.Duration
}

type TranscriptDocument struct {
	RequestID   string             `json:"requestId,omitempty"`
	Status      string             `json:"status"`
	Transcript  string             `json:"transcript"`
	Metadata    TranscriptMetadata `json:"metadata"`
	ProcessedAt time.Time          `json:"processedAt"`
}

// TranscriptMetadata mirrors models.ExtractionResult. Audio fields are
// omitted for documents and document fields for audio.
type TranscriptMetadata struct {
	FileName        string   `json:"fileName"`
	Format          string   `json:"format"`
	MIMEType        string   `json:"mimeType"`
	Category        string   `json:"category"`
	FileSize        int64    `json:"fileSize"`
	Confidence      *float64 `json:"confidence,omitempty"`
	DurationSeconds *float64 `json:"durationSeconds,omitempty"`
	Segments        int      `json:"segments,omitempty"`
	SampleRate      int      `json:"sampleRate,omitempty"`
	PageCount       int      `json:"pageCount,omitempty"`
	Paragraphs      int      `json:"paragraphs,omitempty"`
	ProcessingMs    int64    `json:"processingMs"`
}

type JSONConverter struct {
	now func() time.Time
}

func NewJSONConverter() *JSONConverter {
	return &JSONConverter{now: time.Now}
}

func (c *JSONConverter) Convert(src Source, result *models.ExtractionResult) (*TranscriptDocument, error) {
	if result == nil || result.Transcript == "" {
		return nil, ErrNoTranscript
	}

	doc := &TranscriptDocument{
		RequestID:   src.RequestID,
		Status:      "completed",
		Transcript:  result.Transcript,
		ProcessedAt: c.now().UTC(),
		Metadata: TranscriptMetadata{
			FileName:     src.Filename,
			Format:       string(result.Format),
			MIMEType:     result.Format.MIMEType(),
			Category:     string(result.Category),
			FileSize:     src.Size,
			ProcessingMs: src.Elapsed.Milliseconds(),
		},
	}

	if confidence, ok := result.Confidence(); ok {
		duration := result.Audio.DurationSeconds
		doc.Metadata.Confidence = &confidence
		doc.Metadata.DurationSeconds = &duration
		doc.Metadata.Segments = result.Audio.Segments
		doc.Metadata.SampleRate = result.Audio.SampleRate
	}
	if result.Document != nil {
		doc.Metadata.PageCount = result.Document.Pages
		doc.Metadata.Paragraphs = result.Document.Paragraphs
	}

	return doc, nil
}
