package agent

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/feichai0017/meeting-ingest/internal/models"
)

// DetectFormat maps a filename to its format by extension, ignoring case.
// Content is not inspected.
func DetectFormat(filename string) (models.Format, error) {
	format, ok := models.LookupFormat(filename)
	if !ok {
		ext := strings.ToLower(filepath.Ext(filename))
		if ext == "" {
			return "", models.NewUnsupportedFormat(fmt.Sprintf("%q has no extension", filename))
		}
		return "", models.NewUnsupportedFormat(fmt.Sprintf("extension %s is not one of %s",
			ext, strings.Join(models.SupportedExtensions(), ", ")))
	}
	return format, nil
}
