package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

const promptTemplate = `Your task is to process the text transcript provided below based on a specific instruction.

Instruction:
"%s"

Transcript:
---
%s
---

Now, generate the response that fulfills the instruction.`

// BuildPrompt renders the prompt sent to the model.
func BuildPrompt(transcript, instruction string) string {
	return fmt.Sprintf(promptTemplate, instruction, transcript)
}

// Summarize validates the inputs and asks the model. A blank instruction
// is replaced by DefaultInstruction.
func (s *implSummarizer) Summarize(ctx context.Context, transcript, instruction string) (string, error) {
	transcript = strings.TrimSpace(transcript)
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = DefaultInstruction
	}

	if n := utf8.RuneCountInString(transcript); n < MinTranscriptLength {
		return "", fmt.Errorf("%w: %d characters, need at least %d", ErrTranscriptTooShort, n, MinTranscriptLength)
	}
	if n := utf8.RuneCountInString(instruction); n < MinInstructionLength {
		return "", fmt.Errorf("%w: %d characters, need at least %d", ErrInstructionTooShort, n, MinInstructionLength)
	}

	log := logger.FromContext(ctx, s.logger)
	start := time.Now()

	summary, err := s.generator.Generate(ctx, BuildPrompt(transcript, instruction))
	if err != nil {
		log.Error("Summarization failed", logger.Error(err))
		return "", err
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", ErrEmptyResponse
	}

	log.Info("Summarization completed",
		logger.Int("transcript_chars", len(transcript)),
		logger.Int("summary_chars", len(summary)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}
