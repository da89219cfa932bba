package document

import (
	"context"
	"strings"

	"github.com/feichai0017/meeting-ingest/internal/models"
)

// Processor reduces the bytes of one artifact format to an ExtractionResult.
// Failures are always *models.IngestionError.
type Processor interface {
	// CanProcess reports whether the processor handles format f.
	CanProcess(f models.Format) bool

	// Process extracts the transcript from data.
	Process(ctx context.Context, data []byte) (*models.ExtractionResult, error)

	// Close releases resources held by the processor.
	Close() error
}

// IsBlank reports whether s has no non-whitespace characters.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
