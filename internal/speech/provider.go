package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

// ErrProviderClosed is returned by Recognize after Close.
var ErrProviderClosed = errors.New("speech provider closed")

// Provider owns the single engine instance. The engine is built lazily on
// first use and every inference runs on a bounded ants pool; with one
// worker, concurrent requests queue behind each other.
type Provider struct {
	logger  logger.Logger
	factory Factory
	pool    *ants.Pool

	once    sync.Once
	engine  Engine
	initErr error
	loaded  atomic.Bool
}

type recognition struct {
	segments []Segment
	err      error
}

// NewProvider creates a provider that admits at most maxConcurrent
// inferences at a time. maxConcurrent below 1 is treated as 1.
func NewProvider(log logger.Logger, factory Factory, maxConcurrent int) (*Provider, error) {
	if factory == nil {
		return nil, fmt.Errorf("speech engine factory is required")
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	pool, err := ants.NewPool(maxConcurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to create inference pool: %w", err)
	}

	return &Provider{
		logger:  log.Named("speech"),
		factory: factory,
		pool:    pool,
	}, nil
}

func (p *Provider) load(ctx context.Context) (Engine, error) {
	p.once.Do(func() {
		start := time.Now()
		// The engine outlives the request that triggered loading.
		p.engine, p.initErr = p.factory(context.WithoutCancel(ctx))
		if p.initErr != nil {
			p.logger.Error("Failed to load speech engine", logger.Error(p.initErr))
			return
		}
		p.loaded.Store(true)
		p.logger.Info("Speech engine loaded", logger.Duration("elapsed", time.Since(start)))
	})
	return p.engine, p.initErr
}

// Recognize implements Engine. It waits for a free inference slot, then
// runs the engine. There is no timeout beyond ctx.
func (p *Provider) Recognize(ctx context.Context, audio *Audio) ([]Segment, error) {
	engine, err := p.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load speech engine: %w", err)
	}

	done := make(chan recognition, 1)
	task := func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- recognition{err: fmt.Errorf("speech engine panic: %v", rec)}
			}
		}()
		segments, err := engine.Recognize(ctx, audio)
		done <- recognition{segments: segments, err: err}
	}

	if err := p.pool.Submit(task); err != nil {
		if errors.Is(err, ants.ErrPoolClosed) {
			return nil, ErrProviderClosed
		}
		return nil, fmt.Errorf("failed to schedule recognition: %w", err)
	}

	select {
	case r := <-done:
		return r.segments, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Loaded reports whether the engine has been built successfully.
func (p *Provider) Loaded() bool {
	return p.loaded.Load()
}

// Close stops accepting work and releases the engine if it holds
// resources.
func (p *Provider) Close() error {
	p.pool.Release()
	// Settle the once so a late Recognize cannot start loading.
	p.once.Do(func() { p.initErr = ErrProviderClosed })
	if closer, ok := p.engine.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
