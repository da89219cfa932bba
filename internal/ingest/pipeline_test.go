package ingest

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/meeting-ingest/internal/agent"
	"github.com/feichai0017/meeting-ingest/internal/agent/document"
	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/internal/speech"
	"github.com/feichai0017/meeting-ingest/internal/testutil"
	"github.com/feichai0017/meeting-ingest/internal/utils/validator"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

type fakeEngine struct {
	segments []speech.Segment
	err      error
	calls    int
}

func (f *fakeEngine) Recognize(context.Context, *speech.Audio) ([]speech.Segment, error) {
	f.calls++
	return f.segments, f.err
}

// countingSource records which formats were resolved.
type countingSource struct {
	inner    ProcessorSource
	resolved []models.Format
}

func (c *countingSource) GetProcessor(f models.Format) (document.Processor, error) {
	c.resolved = append(c.resolved, f)
	return c.inner.GetProcessor(f)
}

type harness struct {
	pipeline *Pipeline
	engine   *fakeEngine
	source   *countingSource
	log      *logger.TestLogger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	tl := logger.NewTestLogger()
	engine := &fakeEngine{segments: []speech.Segment{
		{Text: "Welcome everyone.", Confidence: 0.95},
		{Text: "Budget is approved.", Confidence: 0.85},
	}}
	guard := validator.NewGuard(tl, models.DefaultLimits())
	factory, err := agent.NewProcessorFactory(tl, engine, guard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })

	source := &countingSource{inner: factory}
	return &harness{
		pipeline: NewPipeline(tl, guard, source),
		engine:   engine,
		source:   source,
		log:      tl,
	}
}

func artifact(name string, data []byte) models.UploadArtifact {
	return models.NewUploadArtifact(name, data, int64(len(data)), "")
}

func TestIngest_Documents(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		contains string
		format   models.Format
	}{
		{"txt", "minutes.TXT", []byte("Decisions:\n- hire two engineers\n"), "hire two engineers", models.FormatTXT},
		{"pdf", "minutes.pdf", testutil.BuildPDF("Agenda item one", "Agenda item two"), "Agenda item two", models.FormatPDF},
		{"docx", "minutes.docx", testutil.BuildDOCX("Retro notes", "Keep doing demos"), "Keep doing demos", models.FormatDOCX},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			out := h.pipeline.Ingest(context.Background(), artifact(tt.filename, tt.data))

			require.True(t, out.Succeeded(), "%v", out.Err())
			assert.False(t, out.Failed())
			assert.Equal(t, StateSucceeded, out.State())
			assert.Empty(t, out.FailedAt())

			res, err := out.Result()
			require.NoError(t, err)
			assert.Contains(t, res.Transcript, tt.contains)
			assert.Equal(t, tt.format, res.Format)
			assert.Equal(t, tt.format, out.Format())
			assert.Equal(t, models.CategoryDocument, res.Category)
			_, ok := res.Confidence()
			assert.False(t, ok)
			assert.Zero(t, h.engine.calls)
		})
	}
}

func TestIngest_Audio(t *testing.T) {
	h := newHarness(t)
	out := h.pipeline.Ingest(context.Background(), artifact("standup.wav", testutil.SineWAV(16000, 3, 300)))

	require.True(t, out.Succeeded(), "%v", out.Err())
	res, _ := out.Result()
	assert.Equal(t, "Welcome everyone. Budget is approved.", res.Transcript)
	assert.Equal(t, models.CategoryAudio, res.Category)

	confidence, ok := res.Confidence()
	require.True(t, ok)
	assert.InDelta(t, 0.9, confidence, 1e-9)
	assert.Equal(t, 1, h.engine.calls)
}

func TestIngest_TxtRoundTrip(t *testing.T) {
	h := newHarness(t)
	in := "  leading spaces kept\nand trailing too  \n"

	out := h.pipeline.Ingest(context.Background(), artifact("notes.txt", []byte(in)))
	res, err := out.Result()
	require.NoError(t, err)
	assert.Equal(t, in, res.Transcript)
}

func TestIngest_Latin1Text(t *testing.T) {
	h := newHarness(t)

	out := h.pipeline.Ingest(context.Background(), artifact("notes.txt", []byte("caf\xe9 budget")))
	require.True(t, out.Succeeded(), "%v", out.Err())
	res, err := out.Result()
	require.NoError(t, err)
	assert.Equal(t, "café budget", res.Transcript)
	assert.Nil(t, res.Document)
}

func TestIngest_StreamedWAVHeader(t *testing.T) {
	h := newHarness(t)
	wav := testutil.SineWAV(16000, 3, 300)
	binary.LittleEndian.PutUint32(wav[40:], 0xFFFFFFFF)

	out := h.pipeline.Ingest(context.Background(), artifact("standup.wav", wav))
	require.True(t, out.Succeeded(), "%v", out.Err())
	res, _ := out.Result()
	assert.InDelta(t, 3.0, res.Audio.DurationSeconds, 1e-9)
	assert.Equal(t, 1, h.engine.calls)
}

func TestIngest_Failures(t *testing.T) {
	longWAV := testutil.BuildWAV(testutil.WAVSpec{SampleRate: 1000, Channels: 1, BitDepth: 8}, make([]byte, 2_400_000))

	tests := []struct {
		name     string
		artifact models.UploadArtifact
		want     error
		failedAt State
	}{
		{"unsupported extension", artifact("setup.exe", []byte("MZ")), models.ErrUnsupportedFormat, StateValidated},
		{"oversized document", models.NewUploadArtifact("big.pdf", []byte("junk"), 10_000_001, ""), models.ErrPayloadTooLarge, StateReceived},
		{"oversized audio", models.NewUploadArtifact("big.mp3", nil, 100_000_001, ""), models.ErrPayloadTooLarge, StateReceived},
		{"binary text", artifact("notes.txt", []byte("caf\x00e")), models.ErrEncodingError, StateFormatDetected},
		{"corrupt pdf", artifact("deck.pdf", []byte("%PDF-1.4 nope")), models.ErrCorruptDocument, StateFormatDetected},
		{"corrupt docx", artifact("notes.docx", []byte("not a zip")), models.ErrCorruptDocument, StateFormatDetected},
		{"empty docx", artifact("notes.docx", testutil.BuildDOCX("")), models.ErrEmptyContent, StateFormatDetected},
		{"whitespace txt", artifact("notes.txt", []byte(" \n ")), models.ErrEmptyContent, StateFormatDetected},
		{"malformed wav", artifact("call.wav", []byte("nope")), models.ErrUnsupportedAudioEncoding, StateFormatDetected},
		{"forty minute recording", artifact("call.wav", longWAV), models.ErrDurationExceeded, StateFormatDetected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			out := h.pipeline.Ingest(context.Background(), tt.artifact)

			require.True(t, out.Failed())
			assert.False(t, out.Succeeded())
			assert.Equal(t, StateFailed, out.State())
			assert.Equal(t, tt.failedAt, out.FailedAt())

			res, err := out.Result()
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
			_, ok := models.AsIngestionError(err)
			assert.True(t, ok)
			assert.Zero(t, h.engine.calls)
		})
	}
}

func TestIngest_SizeCheckedBeforeDecoding(t *testing.T) {
	h := newHarness(t)
	out := h.pipeline.Ingest(context.Background(), models.NewUploadArtifact("big.pdf", []byte("garbage"), 20_000_000, ""))

	assert.ErrorIs(t, out.Err(), models.ErrPayloadTooLarge)
	assert.Empty(t, h.source.resolved)
}

func TestIngest_TranscriptionFailed(t *testing.T) {
	h := newHarness(t)
	h.engine.err = errors.New("whisper exited with status 137")

	out := h.pipeline.Ingest(context.Background(), artifact("call.wav", testutil.SineWAV(16000, 1, 300)))
	require.True(t, out.Failed())
	assert.ErrorIs(t, out.Err(), models.ErrTranscriptionFailed)
	assert.Contains(t, out.Err().Error(), "status 137")
	assert.Equal(t, models.FormatWAV, out.Format())
}

func TestIngest_LogsTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := logger.ContextWithRequestID(context.Background(), "req-42")
	h.pipeline.Ingest(ctx, artifact("notes.txt", []byte("hello")))

	assert.Contains(t, h.log.Messages("INFO"), "Artifact received")
	assert.Contains(t, h.log.Messages("INFO"), "Ingestion succeeded")
	assert.Len(t, h.log.Messages("DEBUG"), 4)

	var sawRequestID bool
	for _, e := range h.log.GetEntries() {
		for _, f := range e.Fields {
			if f.Key == "request_id" && f.String == "req-42" {
				sawRequestID = true
			}
		}
	}
	assert.True(t, sawRequestID)
}
