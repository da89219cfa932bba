package models

const (
	DefaultMaxDocumentBytes        int64 = 10_000_000
	DefaultMaxAudioBytes           int64 = 100_000_000
	DefaultMaxAudioDurationSeconds       = 1800.0
)

// ValidationLimits bounds what the pipeline accepts. It is loaded once at
// startup and passed by value.
type ValidationLimits struct {
	MaxDocumentBytes        int64   `yaml:"max_document_bytes" json:"maxDocumentBytes"`
	MaxAudioBytes           int64   `yaml:"max_audio_bytes" json:"maxAudioBytes"`
	MaxAudioDurationSeconds float64 `yaml:"max_audio_duration_seconds" json:"maxAudioDurationSeconds"`
}

// DefaultLimits returns the stock limits.
func DefaultLimits() ValidationLimits {
	return ValidationLimits{
		MaxDocumentBytes:        DefaultMaxDocumentBytes,
		MaxAudioBytes:           DefaultMaxAudioBytes,
		MaxAudioDurationSeconds: DefaultMaxAudioDurationSeconds,
	}
}

// SizeLimit returns the byte limit for category c. Unknown categories
// have no limit.
func (l ValidationLimits) SizeLimit(c Category) (int64, bool) {
	switch c {
	case CategoryDocument:
		return l.MaxDocumentBytes, true
	case CategoryAudio:
		return l.MaxAudioBytes, true
	}
	return 0, false
}
