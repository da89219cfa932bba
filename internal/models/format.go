package models

import (
	"path/filepath"
	"strings"
)

// Category groups formats by how they are reduced to text.
type Category string

const (
	CategoryDocument Category = "document"
	CategoryAudio    Category = "audio"
)

// Format is a supported artifact format.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatWAV  Format = "wav"
	FormatMP3  Format = "mp3"
)

// formatTable is the single source of truth for extension, format and
// category. Keys are lowercase and include the leading dot.
var formatTable = map[string]struct {
	format   Format
	category Category
	mime     string
}{
	".txt":  {FormatTXT, CategoryDocument, "text/plain"},
	".pdf":  {FormatPDF, CategoryDocument, "application/pdf"},
	".docx": {FormatDOCX, CategoryDocument, "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	".wav":  {FormatWAV, CategoryAudio, "audio/wav"},
	".mp3":  {FormatMP3, CategoryAudio, "audio/mpeg"},
}

// LookupFormat resolves a filename's extension, case-insensitively.
func LookupFormat(filename string) (Format, bool) {
	entry, ok := formatTable[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return "", false
	}
	return entry.format, true
}

// Category returns the category for f, or "" for an unknown format.
func (f Format) Category() Category {
	for _, entry := range formatTable {
		if entry.format == f {
			return entry.category
		}
	}
	return ""
}

// MIMEType returns the canonical MIME type for f.
func (f Format) MIMEType() string {
	for _, entry := range formatTable {
		if entry.format == f {
			return entry.mime
		}
	}
	return "application/octet-stream"
}

// SupportedExtensions lists every accepted extension.
func SupportedExtensions() []string {
	return []string{".txt", ".pdf", ".docx", ".wav", ".mp3"}
}
