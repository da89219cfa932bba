package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/meeting-ingest/internal/agent/document"
	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

const defaultMaxWorkers = 4

type Processor struct {
	logger     logger.Logger
	maxWorkers int
}

func NewProcessor(log logger.Logger) *Processor {
	return &Processor{
		logger:     log.Named("pdf"),
		maxWorkers: defaultMaxWorkers,
	}
}

func (p *Processor) CanProcess(f models.Format) bool {
	return f == models.FormatPDF
}

func (p *Processor) Process(ctx context.Context, data []byte) (*models.ExtractionResult, error) {
	pdfReader, numPages, err := open(data)
	if err != nil {
		p.logger.Warn("Failed to open pdf", logger.Int("size", len(data)), logger.Error(err))
		return nil, models.NewCorruptDocument("unreadable pdf", err)
	}

	// Each page writes into its own slot so order survives concurrency.
	pages := make([]string, numPages)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := pageText(pdfReader, pageNum)
			if err != nil {
				return fmt.Errorf("failed to get text from page %d: %w", pageNum, err)
			}
			pages[pageNum-1] = text
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, models.NewCorruptDocument("unreadable page", err)
	}

	transcript := strings.TrimSpace(strings.Join(pages, "\n"))
	if document.IsBlank(transcript) {
		return nil, models.NewEmptyContent("pdf has no extractable text")
	}

	p.logger.Debug("Extracted pdf text",
		logger.Int("pages", numPages),
		logger.Int("chars", len(transcript)),
	)

	return &models.ExtractionResult{
		Transcript: transcript,
		Category:   models.CategoryDocument,
		Format:     models.FormatPDF,
		Document:   &models.DocumentMetadata{Pages: numPages},
	}, nil
}

// open parses the cross-reference table. The parser panics on some
// malformed inputs, so panics are turned into errors.
func open(data []byte) (r *pdf.Reader, numPages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, numPages, err = nil, 0, fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()

	reader := bytes.NewReader(data)
	r, err = pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, 0, err
	}
	return r, r.NumPage(), nil
}

func pageText(r *pdf.Reader, pageNum int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()

	page := r.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (p *Processor) Close() error {
	return nil
}
