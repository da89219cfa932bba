package remote

import (
	"context"
	"encoding/base64"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/feichai0017/meeting-ingest/internal/speech"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

type fakeRecognizer struct {
	lastRequest *structpb.Struct
	fail        error
}

func (f *fakeRecognizer) recognize(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f.lastRequest = req
	if f.fail != nil {
		return nil, f.fail
	}
	return structpb.NewStruct(map[string]interface{}{
		"segments": []interface{}{
			map[string]interface{}{"text": "Welcome to the retro.", "confidence": 0.92, "start": 0.0, "end": 1.5},
			map[string]interface{}{"text": "First topic.", "confidence": 0.64, "start": 1.5, "end": 2.25},
		},
	})
}

var recognizerDesc = grpc.ServiceDesc{
	ServiceName: "speech.v1.Recognizer",
	HandlerType: (*interface{})(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Recognize",
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			return srv.(*fakeRecognizer).recognize(ctx, in)
		},
	}},
}

func startServer(t *testing.T, fake *fakeRecognizer) *Engine {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	srv.RegisterService(&recognizerDesc, fake)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	e, err := New(logger.NewNop(), Config{Address: "passthrough:///bufnet", Language: "en"},
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestRecognize(t *testing.T) {
	fake := &fakeRecognizer{}
	e := startServer(t, fake)

	audio := &speech.Audio{Samples: []float32{0, 0.5, -1, 2}, SampleRate: speech.SampleRate}
	segments, err := e.Recognize(context.Background(), audio)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, "Welcome to the retro.", segments[0].Text)
	assert.InDelta(t, 0.92, segments[0].Confidence, 1e-9)
	assert.Equal(t, 1500*time.Millisecond, segments[0].End)
	assert.Equal(t, 2250*time.Millisecond, segments[1].End)

	fields := fake.lastRequest.GetFields()
	assert.Equal(t, "en", fields["language"].GetStringValue())
	assert.Equal(t, float64(speech.SampleRate), fields["sample_rate"].GetNumberValue())

	pcm, err := base64.StdEncoding.DecodeString(fields["audio_pcm16"].GetStringValue())
	require.NoError(t, err)
	assert.Len(t, pcm, 8)
	// Out-of-range samples are clamped to full scale.
	assert.Equal(t, []byte{0xff, 0x7f}, pcm[6:8])
}

func TestRecognize_ServerError(t *testing.T) {
	e := startServer(t, &fakeRecognizer{fail: status.Error(codes.Unavailable, "gpu busy")})

	_, err := e.Recognize(context.Background(), &speech.Audio{SampleRate: speech.SampleRate})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gpu busy")
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestNew_RequiresAddress(t *testing.T) {
	_, err := New(logger.NewNop(), Config{})
	assert.Error(t, err)
}

func TestEncodePCM16(t *testing.T) {
	out := encodePCM16([]float32{1, -1, 0})
	assert.Equal(t, []byte{0xff, 0x7f, 0x01, 0x80, 0x00, 0x00}, out)
}
