// Package speech defines the speech-recognition engine contract and the
// process-wide provider that owns the engine instance.
package speech

import (
	"context"
	"time"
)

// SampleRate is the sample rate every engine receives.
const SampleRate = 16000

// Audio is mono float32 PCM in [-1, 1].
type Audio struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback length of a.
func (a *Audio) Duration() time.Duration {
	if a == nil || a.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(a.Samples)) * time.Second / time.Duration(a.SampleRate)
}

// Segment is one recognized span of speech.
type Segment struct {
	Start      time.Duration
	End        time.Duration
	Text       string
	Confidence float64
}

// Engine turns audio into recognized segments in a single batch call.
type Engine interface {
	Recognize(ctx context.Context, audio *Audio) ([]Segment, error)
}

// Factory builds an engine. It is called at most once per Provider.
type Factory func(ctx context.Context) (Engine, error)
