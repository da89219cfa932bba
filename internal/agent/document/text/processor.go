package text

import (
	"bytes"
	"context"
	"encoding/binary"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/feichai0017/meeting-ingest/internal/agent/document"
	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// Processor decodes plain-text transcripts. UTF-16 needs a byte-order
// mark. Anything else is read as UTF-8, falling back to Windows-1252 (a
// superset of Latin-1) when the bytes are not valid UTF-8.
type Processor struct {
	logger logger.Logger
}

func NewProcessor(log logger.Logger) *Processor {
	return &Processor{logger: log.Named("text")}
}

func (p *Processor) CanProcess(f models.Format) bool {
	return f == models.FormatTXT
}

func (p *Processor) Process(ctx context.Context, data []byte) (*models.ExtractionResult, error) {
	content, err := p.decode(data)
	if err != nil {
		p.logger.Warn("Failed to decode text", logger.Int("size", len(data)), logger.Error(err))
		return nil, err
	}
	if document.IsBlank(content) {
		return nil, models.NewEmptyContent("text file contains no visible characters")
	}

	return &models.ExtractionResult{
		Transcript: content,
		Category:   models.CategoryDocument,
		Format:     models.FormatTXT,
	}, nil
}

func (p *Processor) decode(data []byte) (string, error) {
	var out []byte
	switch {
	case bytes.HasPrefix(data, utf16LEBOM):
		if !validUTF16(data[len(utf16LEBOM):], binary.LittleEndian) {
			return "", models.NewEncodingError("invalid UTF-16 sequence")
		}
		out = p.utf16(data)
	case bytes.HasPrefix(data, utf16BEBOM):
		if !validUTF16(data[len(utf16BEBOM):], binary.BigEndian) {
			return "", models.NewEncodingError("invalid UTF-16 sequence")
		}
		out = p.utf16(data)
	default:
		out = bytes.TrimPrefix(data, utf8BOM)
		if bytes.IndexByte(out, 0) < 0 && !utf8.Valid(out) {
			p.logger.Debug("Content is not UTF-8, falling back to Windows-1252", logger.Int("size", len(out)))
			latin, err := charmap.Windows1252.NewDecoder().Bytes(out)
			if err != nil {
				return "", models.NewEncodingError("content is neither UTF-8 nor Windows-1252")
			}
			out = latin
		}
	}

	if bytes.IndexByte(out, 0) >= 0 {
		return "", models.NewEncodingError("content contains NUL bytes")
	}
	return string(out), nil
}

func (p *Processor) utf16(data []byte) []byte {
	// BOMOverride picks the UTF-16 variant from the mark and strips it.
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		p.logger.Debug("UTF-16 decoder reported an error", logger.Error(err))
	}
	return out
}

// validUTF16 reports whether units holds whole code units with every
// surrogate paired.
func validUTF16(units []byte, order binary.ByteOrder) bool {
	if len(units)%2 != 0 {
		return false
	}
	for i := 0; i < len(units); i += 2 {
		u := order.Uint16(units[i:])
		switch {
		case u >= 0xD800 && u < 0xDC00:
			if i+2 >= len(units) {
				return false
			}
			next := order.Uint16(units[i+2:])
			if next < 0xDC00 || next >= 0xE000 {
				return false
			}
			i += 2
		case u >= 0xDC00 && u < 0xE000:
			return false
		}
	}
	return true
}

func (p *Processor) Close() error {
	return nil
}
