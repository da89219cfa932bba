package transcript

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/meeting-ingest/internal/agent"
	"github.com/feichai0017/meeting-ingest/internal/ingest"
	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/internal/speech"
	"github.com/feichai0017/meeting-ingest/internal/summarizer"
	"github.com/feichai0017/meeting-ingest/internal/testutil"
	"github.com/feichai0017/meeting-ingest/internal/utils/validator"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
	"github.com/feichai0017/meeting-ingest/pkg/storage"
)

type fakeEngine struct {
	calls int
}

func (f *fakeEngine) Recognize(context.Context, *speech.Audio) ([]speech.Segment, error) {
	f.calls++
	return []speech.Segment{{Text: "Quarterly numbers look good.", Confidence: 0.9}}, nil
}

type stubSource struct {
	objects map[string][]byte
	gets    int
}

func (s *stubSource) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	data, ok := s.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (s *stubSource) Get(_ context.Context, key string, _ int64) ([]byte, error) {
	s.gets++
	data, ok := s.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

type fakeSummarizer struct {
	summary string
}

func (f *fakeSummarizer) Summarize(context.Context, string, string) (string, error) {
	return f.summary, nil
}

func newService(t *testing.T, limits models.ValidationLimits, sources storage.Sources, sum summarizer.Summarizer) (TranscriptService, *fakeEngine) {
	t.Helper()
	tl := logger.NewTestLogger()
	engine := &fakeEngine{}
	guard := validator.NewGuard(tl, limits)

	factory, err := agent.NewProcessorFactory(tl, engine, guard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })

	pipeline := ingest.NewPipeline(tl, guard, factory)
	return NewService(pipeline, guard, sources, sum, tl), engine
}

// upload builds a real multipart file header the way gin hands it over.
func upload(t *testing.T, filename string, data []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	header := form.File["file"][0]
	file, err := header.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	return file, header
}

func TestIngestUpload_Text(t *testing.T) {
	svc, _ := newService(t, models.DefaultLimits(), nil, nil)
	ctx := logger.ContextWithRequestID(context.Background(), "req-42")

	file, header := upload(t, "notes.txt", []byte("Action items: ship v2."))
	doc, err := svc.IngestUpload(ctx, file, header)
	require.NoError(t, err)

	assert.Equal(t, "req-42", doc.RequestID)
	assert.Equal(t, "Action items: ship v2.", doc.Transcript)
	assert.Equal(t, "notes.txt", doc.Metadata.FileName)
	assert.Equal(t, "txt", doc.Metadata.Format)
	assert.Nil(t, doc.Metadata.Confidence)
}

func TestIngestUpload_TooLarge(t *testing.T) {
	limits := models.DefaultLimits()
	limits.MaxDocumentBytes = 8
	svc, _ := newService(t, limits, nil, nil)

	file, header := upload(t, "notes.txt", []byte("this is longer than eight bytes"))
	_, err := svc.IngestUpload(context.Background(), file, header)
	assert.ErrorIs(t, err, models.ErrPayloadTooLarge)
}

func TestIngestAudioUpload(t *testing.T) {
	svc, engine := newService(t, models.DefaultLimits(), nil, nil)

	file, header := upload(t, "minutes.txt", []byte("not audio at all"))
	_, err := svc.IngestAudioUpload(context.Background(), file, header)
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)

	file, header = upload(t, "standup.wav", testutil.SineWAV(16000, 1, 440))
	doc, err := svc.IngestAudioUpload(context.Background(), file, header)
	require.NoError(t, err)
	assert.Equal(t, "Quarterly numbers look good.", doc.Transcript)
	require.NotNil(t, doc.Metadata.Confidence)
	assert.InDelta(t, 0.9, *doc.Metadata.Confidence, 1e-9)
	assert.Equal(t, 1, engine.calls)
}

func TestIngestObject(t *testing.T) {
	limits := models.DefaultLimits()
	limits.MaxDocumentBytes = 64
	src := &stubSource{objects: map[string][]byte{
		"2024/05/board.txt": []byte("Board approved the budget."),
		"2024/05/huge.txt":  bytes.Repeat([]byte("a"), 65),
	}}
	svc, _ := newService(t, limits, storage.Sources{storage.SourceTypeMinio: src}, nil)
	ctx := context.Background()

	doc, err := svc.IngestObject(ctx, "minio", "2024/05/board.txt")
	require.NoError(t, err)
	assert.Equal(t, "board.txt", doc.Metadata.FileName)
	assert.Equal(t, "Board approved the budget.", doc.Transcript)
	assert.Equal(t, 1, src.gets)

	_, err = svc.IngestObject(ctx, "minio", "2024/05/huge.txt")
	assert.ErrorIs(t, err, models.ErrPayloadTooLarge)
	assert.Equal(t, 1, src.gets, "oversized object must not be downloaded")

	_, err = svc.IngestObject(ctx, "minio", "2024/05/missing.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = svc.IngestObject(ctx, "s3", "2024/05/board.txt")
	assert.ErrorIs(t, err, storage.ErrUnknownSource)
}

func TestSummarize(t *testing.T) {
	svc, _ := newService(t, models.DefaultLimits(), nil, nil)
	_, err := svc.Summarize(context.Background(), "a long enough transcript here", "")
	assert.True(t, errors.Is(err, summarizer.ErrNotConfigured))

	svc, _ = newService(t, models.DefaultLimits(), nil, &fakeSummarizer{summary: "- Budget approved"})
	summary, err := svc.Summarize(context.Background(), "a long enough transcript here", "")
	require.NoError(t, err)
	assert.Equal(t, "- Budget approved", summary)

	data, err := svc.SummarizeDOCX(context.Background(), "a long enough transcript here", "")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}
