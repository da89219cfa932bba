package models

// AudioMetadata is attached to results produced by the audio transcriber.
type AudioMetadata struct {
	Confidence      float64 `json:"confidence"`
	DurationSeconds float64 `json:"durationSeconds"`
	Segments        int     `json:"segments"`
	SampleRate      int     `json:"sampleRate"`
}

// DocumentMetadata is attached to results produced by document extractors.
type DocumentMetadata struct {
	Pages      int `json:"pages,omitempty"`
	Paragraphs int `json:"paragraphs,omitempty"`
}

// ExtractionResult is the normalized output of a successful ingestion.
type ExtractionResult struct {
	Transcript string            `json:"transcript"`
	Category   Category          `json:"category"`
	Format     Format            `json:"format"`
	Audio      *AudioMetadata    `json:"audio,omitempty"`
	Document   *DocumentMetadata `json:"document,omitempty"`
}

// Confidence reports the transcription confidence. Only audio results
// carry one.
func (r *ExtractionResult) Confidence() (float64, bool) {
	if r == nil || r.Audio == nil {
		return 0, false
	}
	return r.Audio.Confidence, true
}
