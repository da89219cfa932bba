package summarizer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName = "Calibri"
	fontSize = 11
)

var (
	reHeading = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
	reBullet  = regexp.MustCompile(`^[\-\*]\s+(.+)$`)
)

// ExportDOCX renders a markdown-ish summary as a Word document. Headings
// become bold runs and bullets keep a leading bullet glyph.
func ExportDOCX(title, summary string) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	if title != "" {
		addRun(doc.AddParagraph(""), title, true, 14)
	}

	for _, line := range strings.Split(summary, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "---" {
			continue
		}

		if m := reHeading.FindStringSubmatch(trimmed); m != nil {
			addRun(doc.AddParagraph(""), m[1], true, 12)
			continue
		}
		if m := reBullet.FindStringSubmatch(trimmed); m != nil {
			trimmed = "• " + m[1]
		}
		addRun(doc.AddParagraph(""), trimmed, false, fontSize)
	}

	dir, err := os.MkdirTemp("", "summary-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "summary.docx")
	if err := doc.SaveTo(path); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return os.ReadFile(path)
}

func addRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	text = strings.NewReplacer("**", "", "__", "", "`", "").Replace(text)
	run := p.AddText(text).Font(fontName).Size(size)
	if bold {
		run.Bold(true)
	}
}
