package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/feichai0017/meeting-ingest/internal/agent/document"
	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

const (
	bodyPart = "word/document.xml"

	// maxBodyBytes caps the decompressed main part.
	maxBodyBytes = 256 << 20
)

type Processor struct {
	logger logger.Logger
}

func NewProcessor(log logger.Logger) *Processor {
	return &Processor{logger: log.Named("docx")}
}

func (p *Processor) CanProcess(f models.Format) bool {
	return f == models.FormatDOCX
}

func (p *Processor) Process(ctx context.Context, data []byte) (*models.ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		p.logger.Warn("Failed to open docx archive", logger.Int("size", len(data)), logger.Error(err))
		return nil, models.NewCorruptDocument("not a zip archive", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == bodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return nil, models.NewCorruptDocument("missing "+bodyPart, nil)
	}

	rc, err := body.Open()
	if err != nil {
		return nil, models.NewCorruptDocument("unreadable "+bodyPart, err)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(ctx, io.LimitReader(rc, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Warn("Failed to parse docx body", logger.Error(err))
		return nil, models.NewCorruptDocument("malformed "+bodyPart, err)
	}

	transcript := strings.TrimSpace(strings.Join(paragraphs, "\n"))
	if document.IsBlank(transcript) {
		return nil, models.NewEmptyContent("docx has no text")
	}

	return &models.ExtractionResult{
		Transcript: transcript,
		Category:   models.CategoryDocument,
		Format:     models.FormatDOCX,
		Document:   &models.DocumentMetadata{Paragraphs: len(paragraphs)},
	}, nil
}

// readParagraphs walks the WordprocessingML body and returns the text of
// every w:p in document order. Only w:t runs contribute text; w:tab and
// w:br/w:cr become a tab and a newline.
func readParagraphs(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inPara     int
		inText     bool
		sawBody    bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "body":
				sawBody = true
			case "p":
				if inPara == 0 {
					current.Reset()
				}
				inPara++
			case "t":
				inText = true
			case "tab":
				if inPara > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inPara > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				inPara--
				if inPara == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && inPara > 0 {
				current.Write(t)
			}
		}
	}

	if !sawBody {
		return nil, fmt.Errorf("no document body")
	}
	return paragraphs, nil
}

func (p *Processor) Close() error {
	return nil
}
