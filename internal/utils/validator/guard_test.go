package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

func newGuard() *Guard {
	return NewGuard(logger.NewNop(), models.ValidationLimits{})
}

func TestCheckSize(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		declared int64
		data     []byte
		wantErr  bool
		measured float64
		limit    float64
	}{
		{name: "document at limit", filename: "a.pdf", declared: 10_000_000},
		{name: "document over limit", filename: "a.pdf", declared: 10_000_001, wantErr: true, measured: 10_000_001, limit: 10_000_000},
		{name: "audio under limit", filename: "a.mp3", declared: 50_000_000},
		{name: "audio over limit", filename: "a.WAV", declared: 100_000_001, wantErr: true, measured: 100_000_001, limit: 100_000_000},
		{name: "document limit does not apply to audio", filename: "a.mp3", declared: 10_000_001},
		{name: "unknown extension passes", filename: "a.exe", declared: 1 << 40},
		{name: "actual bytes win over declared", filename: "a.txt", declared: 1, data: make([]byte, 10_000_001), wantErr: true, measured: 10_000_001, limit: 10_000_000},
	}

	g := newGuard()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CheckSize(models.NewUploadArtifact(tt.filename, tt.data, tt.declared, ""))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, models.ErrPayloadTooLarge)
			ie, ok := models.AsIngestionError(err)
			require.True(t, ok)
			assert.Equal(t, tt.measured, ie.Measured)
			assert.Equal(t, tt.limit, ie.Limit)
		})
	}
}

func TestCheckDuration(t *testing.T) {
	g := newGuard()

	assert.NoError(t, g.CheckDuration(0))
	assert.NoError(t, g.CheckDuration(1800))

	err := g.CheckDuration(1800.5)
	require.ErrorIs(t, err, models.ErrDurationExceeded)
	ie, _ := models.AsIngestionError(err)
	assert.Equal(t, 1800.5, ie.Measured)
	assert.Equal(t, 1800.0, ie.Limit)
}

func TestCustomLimits(t *testing.T) {
	tl := logger.NewTestLogger()
	g := NewGuard(tl, models.ValidationLimits{
		MaxDocumentBytes:        100,
		MaxAudioBytes:           1000,
		MaxAudioDurationSeconds: 60,
	})

	assert.ErrorIs(t, g.CheckDeclared("x.docx", 101), models.ErrPayloadTooLarge)
	assert.ErrorIs(t, g.CheckDuration(61), models.ErrDurationExceeded)
	assert.Len(t, tl.Messages("WARN"), 2)
	assert.Equal(t, 60.0, g.Limits().MaxAudioDurationSeconds)
}
