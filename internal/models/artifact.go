package models

// UploadArtifact is a single uploaded file as received from a transport.
// ContentType is informational; detection relies on Filename only.
type UploadArtifact struct {
	filename     string
	data         []byte
	declaredSize int64
	contentType  string
}

// NewUploadArtifact wraps the uploaded bytes. declaredSize is whatever the
// transport reported and may be zero when unknown.
func NewUploadArtifact(filename string, data []byte, declaredSize int64, contentType string) UploadArtifact {
	return UploadArtifact{
		filename:     filename,
		data:         data,
		declaredSize: declaredSize,
		contentType:  contentType,
	}
}

func (a UploadArtifact) Filename() string    { return a.filename }
func (a UploadArtifact) Data() []byte        { return a.data }
func (a UploadArtifact) DeclaredSize() int64 { return a.declaredSize }
func (a UploadArtifact) ContentType() string { return a.contentType }

// EffectiveSize is the larger of the declared and the actual byte count.
func (a UploadArtifact) EffectiveSize() int64 {
	if n := int64(len(a.data)); n > a.declaredSize {
		return n
	}
	return a.declaredSize
}
