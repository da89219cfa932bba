package summarizer

import (
	"context"
	"errors"
)

const (
	MinTranscriptLength  = 20
	MinInstructionLength = 10

	DefaultInstruction = "Summarize this transcript in bullet points for a busy executive."
)

var (
	ErrTranscriptTooShort  = errors.New("transcript is too short")
	ErrInstructionTooShort = errors.New("instruction is too short")
	ErrEmptyResponse       = errors.New("empty response from model")
	ErrNotConfigured       = errors.New("summarizer is not configured")
)

// Summarizer applies a free-form instruction to a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, instruction string) (string, error)
}

// Generator sends a prompt to a language model and returns its text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
