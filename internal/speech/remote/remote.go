// Package remote calls a speech-recognition service over gRPC. Messages
// are google.protobuf.Struct values so no generated stubs are needed.
package remote

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/feichai0017/meeting-ingest/internal/speech"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

// RecognizeMethod is the full gRPC method name served by the backend.
const RecognizeMethod = "/speech.v1.Recognizer/Recognize"

const defaultMaxMessageBytes = 256 << 20

type Config struct {
	Address         string
	Language        string
	MaxMessageBytes int
}

type Engine struct {
	logger logger.Logger
	cfg    Config
	conn   *grpc.ClientConn
}

// New creates the client connection. Extra dial options are appended
// after the defaults.
func New(log logger.Logger, cfg Config, opts ...grpc.DialOption) (*Engine, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("remote speech address is required")
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = defaultMaxMessageBytes
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(cfg.MaxMessageBytes),
			grpc.MaxCallRecvMsgSize(cfg.MaxMessageBytes),
		),
	}
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(cfg.Address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client: %w", err)
	}

	return &Engine{
		logger: log.Named("remote"),
		cfg:    cfg,
		conn:   conn,
	}, nil
}

// Recognize sends the samples as base64 little-endian PCM16.
func (e *Engine) Recognize(ctx context.Context, audio *speech.Audio) ([]speech.Segment, error) {
	req, err := structpb.NewStruct(map[string]interface{}{
		"audio_pcm16": base64.StdEncoding.EncodeToString(encodePCM16(audio.Samples)),
		"sample_rate": float64(audio.SampleRate),
		"language":    e.cfg.Language,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp := &structpb.Struct{}
	start := time.Now()
	if err := e.conn.Invoke(ctx, RecognizeMethod, req, resp); err != nil {
		return nil, fmt.Errorf("remote recognize: %w", err)
	}

	values := resp.GetFields()["segments"].GetListValue().GetValues()
	segments := make([]speech.Segment, 0, len(values))
	for _, v := range values {
		fields := v.GetStructValue().GetFields()
		segments = append(segments, speech.Segment{
			Start:      seconds(fields["start"].GetNumberValue()),
			End:        seconds(fields["end"].GetNumberValue()),
			Text:       fields["text"].GetStringValue(),
			Confidence: fields["confidence"].GetNumberValue(),
		})
	}

	e.logger.Debug("Remote recognition finished",
		logger.Duration("elapsed", time.Since(start)),
		logger.Int("segments", len(segments)),
	)
	return segments, nil
}

func (e *Engine) Close() error {
	return e.conn.Close()
}

func encodePCM16(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(math.Round(v*math.MaxInt16))))
	}
	return out
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
