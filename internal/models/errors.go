package models

import (
	"errors"
	"fmt"
)

// ErrorKind names a failure in the ingestion taxonomy.
type ErrorKind string

const (
	KindPayloadTooLarge          ErrorKind = "PayloadTooLarge"
	KindDurationExceeded         ErrorKind = "DurationExceeded"
	KindUnsupportedFormat        ErrorKind = "UnsupportedFormat"
	KindEncodingError            ErrorKind = "EncodingError"
	KindCorruptDocument          ErrorKind = "CorruptDocument"
	KindUnsupportedAudioEncoding ErrorKind = "UnsupportedAudioEncoding"
	KindEmptyContent             ErrorKind = "EmptyContent"
	KindTranscriptionFailed      ErrorKind = "TranscriptionFailed"
)

// Sentinels for errors.Is. An *IngestionError matches the sentinel of its
// kind.
var (
	ErrPayloadTooLarge          = errors.New("payload too large")
	ErrDurationExceeded         = errors.New("audio duration exceeded")
	ErrUnsupportedFormat        = errors.New("unsupported format")
	ErrEncodingError            = errors.New("text encoding error")
	ErrCorruptDocument          = errors.New("corrupt document")
	ErrUnsupportedAudioEncoding = errors.New("unsupported audio encoding")
	ErrEmptyContent             = errors.New("empty content")
	ErrTranscriptionFailed      = errors.New("transcription failed")
)

var sentinels = map[ErrorKind]error{
	KindPayloadTooLarge:          ErrPayloadTooLarge,
	KindDurationExceeded:         ErrDurationExceeded,
	KindUnsupportedFormat:        ErrUnsupportedFormat,
	KindEncodingError:            ErrEncodingError,
	KindCorruptDocument:          ErrCorruptDocument,
	KindUnsupportedAudioEncoding: ErrUnsupportedAudioEncoding,
	KindEmptyContent:             ErrEmptyContent,
	KindTranscriptionFailed:      ErrTranscriptionFailed,
}

// IngestionError is the only error type the pipeline returns to callers.
// Measured and Limit are set for PayloadTooLarge (bytes) and
// DurationExceeded (seconds).
type IngestionError struct {
	Kind     ErrorKind
	Detail   string
	Measured float64
	Limit    float64
	Err      error
}

func (e *IngestionError) Error() string {
	msg := sentinels[e.Kind].Error()
	switch e.Kind {
	case KindPayloadTooLarge:
		msg = fmt.Sprintf("%s: %.0f bytes exceeds limit of %.0f bytes", msg, e.Measured, e.Limit)
	case KindDurationExceeded:
		msg = fmt.Sprintf("%s: %.1fs exceeds limit of %.0fs", msg, e.Measured, e.Limit)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

func (e *IngestionError) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// HasLimit reports whether Measured and Limit are meaningful.
func (e *IngestionError) HasLimit() bool {
	return e.Kind == KindPayloadTooLarge || e.Kind == KindDurationExceeded
}

func NewPayloadTooLarge(measured, limit int64) *IngestionError {
	return &IngestionError{Kind: KindPayloadTooLarge, Measured: float64(measured), Limit: float64(limit)}
}

func NewDurationExceeded(measured, limit float64) *IngestionError {
	return &IngestionError{Kind: KindDurationExceeded, Measured: measured, Limit: limit}
}

func NewUnsupportedFormat(detail string) *IngestionError {
	return &IngestionError{Kind: KindUnsupportedFormat, Detail: detail}
}

func NewEncodingError(detail string) *IngestionError {
	return &IngestionError{Kind: KindEncodingError, Detail: detail}
}

func NewCorruptDocument(detail string, err error) *IngestionError {
	return &IngestionError{Kind: KindCorruptDocument, Detail: detail, Err: err}
}

func NewUnsupportedAudioEncoding(detail string, err error) *IngestionError {
	return &IngestionError{Kind: KindUnsupportedAudioEncoding, Detail: detail, Err: err}
}

func NewEmptyContent(detail string) *IngestionError {
	return &IngestionError{Kind: KindEmptyContent, Detail: detail}
}

func NewTranscriptionFailed(err error) *IngestionError {
	return &IngestionError{Kind: KindTranscriptionFailed, Err: err}
}

// AsIngestionError unwraps err to an *IngestionError if one is in the chain.
func AsIngestionError(err error) (*IngestionError, bool) {
	var ie *IngestionError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
