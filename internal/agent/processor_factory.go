package agent

import (
	"fmt"

	"github.com/feichai0017/meeting-ingest/internal/agent/audio"
	"github.com/feichai0017/meeting-ingest/internal/agent/document"
	"github.com/feichai0017/meeting-ingest/internal/agent/document/docx"
	"github.com/feichai0017/meeting-ingest/internal/agent/document/pdf"
	"github.com/feichai0017/meeting-ingest/internal/agent/document/text"
	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/internal/speech"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

// ProcessorFactory maps every supported format to its processor.
type ProcessorFactory struct {
	processors map[models.Format]document.Processor
	logger     logger.Logger
}

func NewProcessorFactory(log logger.Logger, engine speech.Engine, guard audio.DurationChecker) (*ProcessorFactory, error) {
	if engine == nil {
		return nil, fmt.Errorf("speech engine is required")
	}
	if guard == nil {
		return nil, fmt.Errorf("duration guard is required")
	}

	f := &ProcessorFactory{
		processors: make(map[models.Format]document.Processor),
		logger:     log,
	}

	f.processors[models.FormatTXT] = text.NewProcessor(log)
	f.processors[models.FormatPDF] = pdf.NewProcessor(log)
	f.processors[models.FormatDOCX] = docx.NewProcessor(log)
	f.processors[models.FormatWAV] = audio.NewTranscriber(log, models.FormatWAV, engine, guard)
	f.processors[models.FormatMP3] = audio.NewTranscriber(log, models.FormatMP3, engine, guard)

	return f, nil
}

func (f *ProcessorFactory) GetProcessor(format models.Format) (document.Processor, error) {
	processor, ok := f.processors[format]
	if !ok || !processor.CanProcess(format) {
		f.logger.Error("No processor found", logger.String("format", string(format)))
		return nil, models.NewUnsupportedFormat(fmt.Sprintf("no processor for %s", format))
	}
	return processor, nil
}

// Close closes every processor and returns the first error.
func (f *ProcessorFactory) Close() error {
	var first error
	for format, p := range f.processors {
		if err := p.Close(); err != nil {
			f.logger.Error("Failed to close processor", logger.String("format", string(format)), logger.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
