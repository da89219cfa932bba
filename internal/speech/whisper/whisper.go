// Package whisper runs whisper.cpp as a speech engine.
package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/feichai0017/meeting-ingest/internal/speech"
	"github.com/feichai0017/meeting-ingest/pkg/executor"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

// Config locates the whisper.cpp binary and model.
type Config struct {
	BinaryPath string
	ModelPath  string
	Language   string
	Threads    int
	// TempDir holds the per-request working directory; empty means the
	// system default.
	TempDir string
}

type Engine struct {
	logger   logger.Logger
	cfg      Config
	executor executor.Executor
}

// New checks the model file and returns a ready engine.
func New(log logger.Logger, cfg Config, exec executor.Executor) (*Engine, error) {
	if cfg.BinaryPath == "" {
		return nil, fmt.Errorf("whisper binary path is required")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("failed to stat whisper model: %w", err)
	}
	if cfg.Language == "" {
		cfg.Language = "auto"
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 4
	}
	if exec == nil {
		exec = executor.New()
	}

	return &Engine{
		logger:   log.Named("whisper"),
		cfg:      cfg,
		executor: exec,
	}, nil
}

// Recognize writes audio to a temporary 16-bit WAV, runs whisper.cpp with
// greedy decoding and no temperature fallback, and reads back the full
// JSON output.
func (e *Engine) Recognize(ctx context.Context, audio *speech.Audio) ([]speech.Segment, error) {
	dir, err := os.MkdirTemp(e.cfg.TempDir, "whisper-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	wavPath := filepath.Join(dir, "input.wav")
	if err := writeWAV(wavPath, audio); err != nil {
		return nil, fmt.Errorf("failed to write input wav: %w", err)
	}

	outputPrefix := filepath.Join(dir, "output")
	args := []string{
		"-m", e.cfg.ModelPath,
		"-f", wavPath,
		"-l", e.cfg.Language,
		"-t", strconv.Itoa(e.cfg.Threads),
		"-nf",
		"-np",
		"-ojf",
		"-of", outputPrefix,
	}

	start := time.Now()
	if _, err := e.executor.Execute(ctx, e.cfg.BinaryPath, args...); err != nil {
		return nil, fmt.Errorf("whisper transcribe: %w", err)
	}

	segments, err := readSegments(outputPrefix + ".json")
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Whisper finished",
		logger.Duration("elapsed", time.Since(start)),
		logger.Duration("audio", audio.Duration()),
		logger.Int("segments", len(segments)),
	)
	return segments, nil
}

func writeWAV(path string, audio *speech.Audio) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: audio.SampleRate},
		Data:           make([]int, len(audio.Samples)),
		SourceBitDepth: 16,
	}
	for i, s := range audio.Samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		buf.Data[i] = int(math.Round(v * math.MaxInt16))
	}

	enc := wav.NewEncoder(f, audio.SampleRate, 16, 1, 1)
	if err := enc.Write(buf); err != nil {
		f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type output struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text   string `json:"text"`
		Tokens []struct {
			Text string  `json:"text"`
			P    float64 `json:"p"`
		} `json:"tokens"`
	} `json:"transcription"`
}

func readSegments(path string) ([]speech.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output: %w", err)
	}

	var out output
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper output: %w", err)
	}

	segments := make([]speech.Segment, 0, len(out.Transcription))
	for _, t := range out.Transcription {
		var sum float64
		var n int
		for _, tok := range t.Tokens {
			// Special tokens such as [_BEG_] and [_TT_150] carry no text.
			if strings.HasPrefix(tok.Text, "[_") {
				continue
			}
			sum += tok.P
			n++
		}
		confidence := 0.0
		if n > 0 {
			confidence = sum / float64(n)
		}

		segments = append(segments, speech.Segment{
			Start:      time.Duration(t.Offsets.From) * time.Millisecond,
			End:        time.Duration(t.Offsets.To) * time.Millisecond,
			Text:       t.Text,
			Confidence: confidence,
		})
	}
	return segments, nil
}
