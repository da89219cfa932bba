package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"

	"github.com/feichai0017/meeting-ingest/internal/models"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	// frames pulled per read
	readFrames = 4096
)

// Stream is an opened audio container. Duration is measured from the
// payload present so it is known before any sample is decoded.
type Stream struct {
	Format     models.Format
	SampleRate int
	Channels   int
	Duration   float64

	decode func(ctx context.Context) ([]float32, error)
}

// Open parses the container header of data.
func Open(format models.Format, data []byte) (*Stream, error) {
	switch format {
	case models.FormatWAV:
		return openWAV(data)
	case models.FormatMP3:
		return openMP3(data)
	}
	return nil, models.NewUnsupportedFormat(fmt.Sprintf("%q is not an audio format", format))
}

// Decode pulls every sample and returns them down-mixed to mono at the
// source sample rate.
func (s *Stream) Decode(ctx context.Context) ([]float32, error) {
	return s.decode(ctx)
}

func openWAV(data []byte) (*Stream, error) {
	rd := bytes.NewReader(data)
	d := wav.NewDecoder(rd)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, models.NewUnsupportedAudioEncoding("malformed wav header", err)
	}
	if d.NumChans == 0 || d.SampleRate == 0 {
		return nil, models.NewUnsupportedAudioEncoding("malformed wav header", nil)
	}
	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, models.NewUnsupportedAudioEncoding(fmt.Sprintf("wav encoding %d is not linear PCM", d.WavAudioFormat), nil)
	}
	switch d.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, models.NewUnsupportedAudioEncoding(fmt.Sprintf("unsupported wav bit depth %d", d.BitDepth), nil)
	}

	if err := d.FwdToPCM(); err != nil || d.PCMChunk == nil {
		return nil, models.NewUnsupportedAudioEncoding("wav has no data chunk", err)
	}

	channels := int(d.NumChans)
	bitDepth := int(d.BitDepth)
	frameSize := channels * bitDepth / 8

	// The reader sits at the first payload byte. Streaming writers leave the
	// data size at 0 or 0xFFFFFFFF (which the parser pads to 0), so the chunk
	// runs to EOF. Truncated files claim more than they hold.
	offset := len(data) - rd.Len()
	payload := int64(rd.Len())
	if n := d.PCMLen(); n > 0 && n < payload {
		payload = n
	}
	pcm := data[offset : offset+int(payload-payload%int64(frameSize))]

	return &Stream{
		Format:     models.FormatWAV,
		SampleRate: int(d.SampleRate),
		Channels:   channels,
		Duration:   float64(len(pcm)) / float64(int(d.SampleRate)*frameSize),
		decode: func(ctx context.Context) ([]float32, error) {
			return decodeWAV(ctx, pcm, channels, bitDepth)
		},
	}, nil
}

// decodeWAV converts little-endian PCM frames to mono floats.
func decodeWAV(ctx context.Context, pcm []byte, channels, bitDepth int) ([]float32, error) {
	width := bitDepth / 8
	frameSize := channels * width
	mono := make([]float32, 0, len(pcm)/frameSize)
	scale := float32(int64(1) << (bitDepth - 1))

	for i := 0; i < len(pcm); i += frameSize {
		if (i/frameSize)%readFrames == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var acc float32
		for c := 0; c < channels; c++ {
			b := pcm[i+c*width:]
			switch bitDepth {
			case 8:
				// 8-bit PCM is unsigned
				acc += float32(int(b[0])-128) / 128
			case 16:
				acc += float32(int16(binary.LittleEndian.Uint16(b))) / scale
			case 24:
				v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
				acc += float32(v) / scale
			case 32:
				acc += float32(int32(binary.LittleEndian.Uint32(b))) / scale
			}
		}
		mono = append(mono, acc/float32(channels))
	}
	return mono, nil
}

func openMP3(data []byte) (stream *Stream, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			stream, err = nil, models.NewUnsupportedAudioEncoding("malformed mp3 stream", fmt.Errorf("mp3 decoder panic: %v", rec))
		}
	}()

	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, models.NewUnsupportedAudioEncoding("malformed mp3 stream", err)
	}
	// Length scans every frame header; decoded output is always 16-bit stereo.
	if dec.Length() <= 0 || dec.SampleRate() <= 0 {
		return nil, models.NewUnsupportedAudioEncoding("mp3 has no audio frames", nil)
	}

	return &Stream{
		Format:     models.FormatMP3,
		SampleRate: dec.SampleRate(),
		Channels:   2,
		Duration:   float64(dec.Length()) / 4 / float64(dec.SampleRate()),
		decode: func(ctx context.Context) ([]float32, error) {
			return decodeMP3(ctx, dec)
		},
	}, nil
}

func decodeMP3(ctx context.Context, dec *mp3.Decoder) (mono []float32, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			mono, err = nil, models.NewUnsupportedAudioEncoding("corrupt mp3 frame", fmt.Errorf("mp3 decoder panic: %v", rec))
		}
	}()

	mono = make([]float32, 0, dec.Length()/4)
	buf := make([]byte, readFrames*4)
	var pending []byte

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, readErr := dec.Read(buf)
		chunk := append(pending, buf[:n]...)
		whole := len(chunk) - len(chunk)%4
		for i := 0; i < whole; i += 4 {
			l := int16(binary.LittleEndian.Uint16(chunk[i:]))
			r := int16(binary.LittleEndian.Uint16(chunk[i+2:]))
			mono = append(mono, (float32(l)+float32(r))/2/32768)
		}
		pending = append(pending[:0], chunk[whole:]...)

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, models.NewUnsupportedAudioEncoding("corrupt mp3 frame", readErr)
		}
	}
	return mono, nil
}
