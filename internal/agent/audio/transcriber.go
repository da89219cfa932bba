// Package audio turns WAV and MP3 recordings into transcripts.
package audio

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/internal/speech"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

// DurationChecker rejects recordings that are too long.
type DurationChecker interface {
	CheckDuration(seconds float64) error
}

// Transcriber handles one audio format. The duration limit is enforced
// from the container header before samples are decoded, so an overlong
// recording never reaches the engine.
type Transcriber struct {
	logger logger.Logger
	format models.Format
	engine speech.Engine
	guard  DurationChecker
}

func NewTranscriber(log logger.Logger, format models.Format, engine speech.Engine, guard DurationChecker) *Transcriber {
	return &Transcriber{
		logger: log.Named("audio").With(logger.String("format", string(format))),
		format: format,
		engine: engine,
		guard:  guard,
	}
}

func (t *Transcriber) CanProcess(f models.Format) bool {
	return f == t.format
}

func (t *Transcriber) Process(ctx context.Context, data []byte) (*models.ExtractionResult, error) {
	stream, err := Open(t.format, data)
	if err != nil {
		t.logger.Warn("Failed to open audio container", logger.Int("size", len(data)), logger.Error(err))
		return nil, err
	}

	if err := t.guard.CheckDuration(stream.Duration); err != nil {
		return nil, err
	}

	samples, err := stream.Decode(ctx)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, models.NewEmptyContent("audio contains no samples")
	}

	pcm := &speech.Audio{
		Samples:    Resample(samples, stream.SampleRate, speech.SampleRate),
		SampleRate: speech.SampleRate,
	}

	start := time.Now()
	segments, err := t.engine.Recognize(ctx, pcm)
	if err != nil {
		t.logger.Error("Speech recognition failed", logger.Error(err))
		return nil, models.NewTranscriptionFailed(err)
	}

	transcript, confidence := merge(segments)
	if transcript == "" {
		return nil, models.NewEmptyContent("no speech recognized")
	}

	t.logger.Info("Audio transcribed",
		logger.Float64("duration", stream.Duration),
		logger.Int("segments", len(segments)),
		logger.Float64("confidence", confidence),
		logger.Duration("elapsed", time.Since(start)),
	)

	return &models.ExtractionResult{
		Transcript: transcript,
		Category:   models.CategoryAudio,
		Format:     t.format,
		Audio: &models.AudioMetadata{
			Confidence:      confidence,
			DurationSeconds: stream.Duration,
			Segments:        len(segments),
			SampleRate:      stream.SampleRate,
		},
	}, nil
}

// merge joins trimmed segment texts with single spaces and averages the
// clamped segment confidences.
func merge(segments []speech.Segment) (string, float64) {
	texts := make([]string, 0, len(segments))
	var sum float64
	for _, s := range segments {
		if text := strings.TrimSpace(s.Text); text != "" {
			texts = append(texts, text)
		}
		sum += clamp(s.Confidence)
	}
	if len(segments) == 0 {
		return "", 0
	}
	return strings.Join(texts, " "), sum / float64(len(segments))
}

func clamp(c float64) float64 {
	if math.IsNaN(c) || c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

func (t *Transcriber) Close() error {
	return nil
}
