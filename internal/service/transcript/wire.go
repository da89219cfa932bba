package transcript

import (
	"context"
	"errors"
	"fmt"

	"github.com/feichai0017/meeting-ingest/config"
	"github.com/feichai0017/meeting-ingest/internal/agent"
	"github.com/feichai0017/meeting-ingest/internal/ingest"
	"github.com/feichai0017/meeting-ingest/internal/speech"
	"github.com/feichai0017/meeting-ingest/internal/speech/remote"
	"github.com/feichai0017/meeting-ingest/internal/speech/whisper"
	"github.com/feichai0017/meeting-ingest/internal/summarizer"
	"github.com/feichai0017/meeting-ingest/internal/utils/validator"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
	"github.com/feichai0017/meeting-ingest/pkg/storage"
)

// GetService builds the service and everything behind it from cfg. The
// returned close function releases the speech engine.
func GetService(ctx context.Context, log logger.Logger, cfg *config.Config) (TranscriptService, func() error, error) {
	guard := validator.NewGuard(log, cfg.Limits)

	provider, err := speech.NewProvider(log, SpeechFactory(log, cfg.Speech), cfg.Speech.MaxConcurrent)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize speech provider: %w", err)
	}

	factory, err := agent.NewProcessorFactory(log, provider, guard)
	if err != nil {
		_ = provider.Close()
		return nil, nil, fmt.Errorf("failed to initialize processor factory: %w", err)
	}

	sources, err := storage.NewSources(ctx, log, cfg.Storage)
	if err != nil {
		_ = factory.Close()
		_ = provider.Close()
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	sum, err := summarizer.New(ctx, log, cfg.Gemini)
	switch {
	case errors.Is(err, summarizer.ErrNotConfigured):
		log.Warn("Summarization disabled, GOOGLE_API_KEY is not set")
	case err != nil:
		_ = factory.Close()
		_ = provider.Close()
		return nil, nil, fmt.Errorf("failed to initialize summarizer: %w", err)
	}

	closeFn := func() error {
		return errors.Join(factory.Close(), provider.Close())
	}

	pipeline := ingest.NewPipeline(log, guard, factory)
	return NewService(pipeline, guard, sources, sum, log), closeFn, nil
}

// SpeechFactory returns the lazy constructor for the configured backend.
func SpeechFactory(log logger.Logger, cfg config.SpeechConfig) speech.Factory {
	return func(ctx context.Context) (speech.Engine, error) {
		switch cfg.Backend {
		case config.BackendRemote:
			return remote.New(log, remote.Config{
				Address:         cfg.Remote.Address,
				Language:        cfg.Remote.Language,
				MaxMessageBytes: cfg.Remote.MaxMessageBytes,
			})
		case config.BackendWhisper, "":
			return whisper.New(log, whisper.Config{
				BinaryPath: cfg.Whisper.BinaryPath,
				ModelPath:  cfg.Whisper.ModelPath,
				Language:   cfg.Whisper.Language,
				Threads:    cfg.Whisper.Threads,
				TempDir:    cfg.Whisper.TempDir,
			}, nil)
		}
		return nil, fmt.Errorf("unknown speech backend %q", cfg.Backend)
	}
}
