package pdf

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/internal/testutil"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

func TestProcess_PageOrder(t *testing.T) {
	data := testutil.BuildPDF("Quarterly review opened", "Budget approved", "Meeting adjourned")

	res, err := NewProcessor(logger.NewNop()).Process(context.Background(), data)
	require.NoError(t, err)

	first := strings.Index(res.Transcript, "Quarterly review opened")
	second := strings.Index(res.Transcript, "Budget approved")
	third := strings.Index(res.Transcript, "Meeting adjourned")
	require.True(t, first >= 0 && second >= 0 && third >= 0, res.Transcript)
	assert.Less(t, first, second)
	assert.Less(t, second, third)

	assert.Equal(t, models.FormatPDF, res.Format)
	assert.Equal(t, models.CategoryDocument, res.Category)
	require.NotNil(t, res.Document)
	assert.Equal(t, 3, res.Document.Pages)
	_, ok := res.Confidence()
	assert.False(t, ok)
}

func TestProcess_ManyPages(t *testing.T) {
	pages := make([]string, 12)
	for i := range pages {
		pages[i] = "page marker " + string(rune('A'+i))
	}

	res, err := NewProcessor(logger.NewNop()).Process(context.Background(), testutil.BuildPDF(pages...))
	require.NoError(t, err)

	last := -1
	for _, p := range pages {
		idx := strings.Index(res.Transcript, p)
		require.Greater(t, idx, last, p)
		last = idx
	}
}

func TestProcess_ImageOnly(t *testing.T) {
	data := testutil.BuildPDFStreams("q 612 0 0 792 0 0 cm /Im0 Do Q")

	_, err := NewProcessor(logger.NewNop()).Process(context.Background(), data)
	assert.ErrorIs(t, err, models.ErrEmptyContent)
}

func TestProcess_Corrupt(t *testing.T) {
	tests := map[string][]byte{
		"empty":       {},
		"not a pdf":   []byte("this is definitely not a pdf document"),
		"truncated":   testutil.BuildPDF("hello")[:60],
		"random tail": append([]byte("%PDF-1.4\n"), make([]byte, 200)...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewProcessor(logger.NewNop()).Process(context.Background(), data)
			assert.ErrorIs(t, err, models.ErrCorruptDocument)
		})
	}
}

func TestCanProcess(t *testing.T) {
	p := NewProcessor(logger.NewNop())
	assert.True(t, p.CanProcess(models.FormatPDF))
	assert.False(t, p.CanProcess(models.FormatDOCX))
}
