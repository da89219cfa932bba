// Package ingest runs one uploaded artifact through validation, format
// detection and extraction.
package ingest

import (
	"context"
	"time"

	"github.com/feichai0017/meeting-ingest/internal/agent"
	"github.com/feichai0017/meeting-ingest/internal/agent/document"
	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

// SizeChecker validates an artifact before any decoding.
type SizeChecker interface {
	CheckSize(artifact models.UploadArtifact) error
}

// ProcessorSource resolves the processor for a format.
type ProcessorSource interface {
	GetProcessor(format models.Format) (document.Processor, error)
}

// Pipeline holds no per-request state; one instance serves all requests.
type Pipeline struct {
	logger     logger.Logger
	guard      SizeChecker
	processors ProcessorSource
}

func NewPipeline(log logger.Logger, guard SizeChecker, processors ProcessorSource) *Pipeline {
	return &Pipeline{
		logger:     log.Named("ingest"),
		guard:      guard,
		processors: processors,
	}
}

// Ingest reduces artifact to a transcript. Nothing partial is returned on
// failure.
func (p *Pipeline) Ingest(ctx context.Context, artifact models.UploadArtifact) Outcome {
	start := time.Now()
	log := logger.FromContext(ctx, p.logger).With(
		logger.String("filename", artifact.Filename()),
		logger.Int64("size", artifact.EffectiveSize()),
	)

	state := StateReceived
	var format models.Format
	fail := func(err error) Outcome {
		log.Warn("Ingestion failed",
			logger.String("state", string(state)),
			logger.Error(err),
		)
		return failed(state, format, err, time.Since(start))
	}
	advance := func(next State) {
		log.Debug("State transition", logger.String("from", string(state)), logger.String("to", string(next)))
		state = next
	}

	log.Info("Artifact received")

	if err := p.guard.CheckSize(artifact); err != nil {
		return fail(err)
	}
	advance(StateValidated)

	format, err := agent.DetectFormat(artifact.Filename())
	if err != nil {
		return fail(err)
	}
	advance(StateFormatDetected)

	processor, err := p.processors.GetProcessor(format)
	if err != nil {
		return fail(err)
	}
	result, err := processor.Process(ctx, artifact.Data())
	if err != nil {
		return fail(err)
	}
	if result == nil || document.IsBlank(result.Transcript) {
		return fail(models.NewEmptyContent("extractor returned no text"))
	}
	advance(StateExtracted)

	advance(StateSucceeded)
	elapsed := time.Since(start)
	log.Info("Ingestion succeeded",
		logger.String("format", string(format)),
		logger.Int("chars", len(result.Transcript)),
		logger.Duration("elapsed", elapsed),
	)
	return succeeded(result, elapsed)
}
