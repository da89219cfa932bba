package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

type stubEngine struct {
	active  atomic.Int32
	peak    atomic.Int32
	delay   time.Duration
	err     error
	closed  atomic.Bool
	doPanic bool
}

func (s *stubEngine) Recognize(ctx context.Context, audio *Audio) ([]Segment, error) {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if s.doPanic {
		panic("model crashed")
	}
	time.Sleep(s.delay)
	if s.err != nil {
		return nil, s.err
	}
	return []Segment{{Text: "hello", Confidence: 0.9, End: audio.Duration()}}, nil
}

func (s *stubEngine) Close() error {
	s.closed.Store(true)
	return nil
}

func TestProvider_LazyLoadOnce(t *testing.T) {
	var builds atomic.Int32
	engine := &stubEngine{}
	p, err := NewProvider(logger.NewNop(), func(ctx context.Context) (Engine, error) {
		builds.Add(1)
		return engine, nil
	}, 4)
	require.NoError(t, err)
	defer p.Close()

	assert.False(t, p.Loaded())
	assert.Zero(t, builds.Load())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			segs, err := p.Recognize(context.Background(), &Audio{Samples: make([]float32, SampleRate), SampleRate: SampleRate})
			assert.NoError(t, err)
			assert.Len(t, segs, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	assert.True(t, p.Loaded())
}

func TestProvider_SerializesByDefault(t *testing.T) {
	engine := &stubEngine{delay: 20 * time.Millisecond}
	p, err := NewProvider(logger.NewNop(), func(context.Context) (Engine, error) { return engine, nil }, 0)
	require.NoError(t, err)
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Recognize(context.Background(), &Audio{SampleRate: SampleRate})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), engine.peak.Load())
}

func TestProvider_InitFailure(t *testing.T) {
	var builds atomic.Int32
	p, err := NewProvider(logger.NewNop(), func(context.Context) (Engine, error) {
		builds.Add(1)
		return nil, errors.New("model file not found")
	}, 1)
	require.NoError(t, err)
	defer p.Close()

	for i := 0; i < 2; i++ {
		_, err := p.Recognize(context.Background(), &Audio{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model file not found")
	}
	assert.Equal(t, int32(1), builds.Load())
	assert.False(t, p.Loaded())
}

func TestProvider_EngineErrorAndPanic(t *testing.T) {
	failing := &stubEngine{err: errors.New("decoder out of memory")}
	p, err := NewProvider(logger.NewNop(), func(context.Context) (Engine, error) { return failing, nil }, 1)
	require.NoError(t, err)
	_, err = p.Recognize(context.Background(), &Audio{})
	assert.EqualError(t, err, "decoder out of memory")
	require.NoError(t, p.Close())
	assert.True(t, failing.closed.Load())

	panicking := &stubEngine{doPanic: true}
	p, err = NewProvider(logger.NewNop(), func(context.Context) (Engine, error) { return panicking, nil }, 1)
	require.NoError(t, err)
	defer p.Close()
	_, err = p.Recognize(context.Background(), &Audio{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")
}

func TestProvider_Closed(t *testing.T) {
	p, err := NewProvider(logger.NewNop(), func(context.Context) (Engine, error) { return &stubEngine{}, nil }, 1)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = p.Recognize(context.Background(), &Audio{})
	assert.Error(t, err)
}

func TestNewProvider_RequiresFactory(t *testing.T) {
	_, err := NewProvider(logger.NewNop(), nil, 1)
	assert.Error(t, err)
}

func TestAudioDuration(t *testing.T) {
	a := &Audio{Samples: make([]float32, 24000), SampleRate: SampleRate}
	assert.Equal(t, 1500*time.Millisecond, a.Duration())

	var none *Audio
	assert.Zero(t, none.Duration())
}
