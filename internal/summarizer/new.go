package summarizer

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/feichai0017/meeting-ingest/config"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

type implSummarizer struct {
	generator Generator
	logger    logger.Logger
}

// New creates a Summarizer backed by Gemini.
func New(ctx context.Context, log logger.Logger, cfg config.GeminiConfig) (Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return NewWithGenerator(log, &geminiGenerator{client: client, model: cfg.Model}), nil
}

// NewWithGenerator creates a Summarizer over any Generator.
func NewWithGenerator(log logger.Logger, g Generator) Summarizer {
	return &implSummarizer{
		generator: g,
		logger:    log.Named("summarizer"),
	}
}
