package validator

import (
	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

// Guard enforces size and duration limits before any content is decoded.
// It has no side effects beyond logging.
type Guard struct {
	logger logger.Logger
	limits models.ValidationLimits
}

// NewGuard creates a guard. A zero limits value falls back to the defaults.
func NewGuard(log logger.Logger, limits models.ValidationLimits) *Guard {
	if limits == (models.ValidationLimits{}) {
		limits = models.DefaultLimits()
	}
	return &Guard{
		logger: log.Named("validator"),
		limits: limits,
	}
}

// Limits returns the limits this guard enforces.
func (g *Guard) Limits() models.ValidationLimits {
	return g.limits
}

// CheckSize rejects artifacts whose effective size exceeds the limit of
// their category. An artifact with an unknown extension passes; the
// detector rejects it afterwards.
func (g *Guard) CheckSize(artifact models.UploadArtifact) error {
	return g.CheckDeclared(artifact.Filename(), artifact.EffectiveSize())
}

// CheckDeclared runs the size check on metadata alone.
func (g *Guard) CheckDeclared(filename string, size int64) error {
	format, ok := models.LookupFormat(filename)
	if !ok {
		return nil
	}
	limit, ok := g.limits.SizeLimit(format.Category())
	if !ok || size <= limit {
		return nil
	}

	g.logger.Warn("Payload exceeds size limit",
		logger.String("filename", filename),
		logger.Int64("size", size),
		logger.Int64("limit", limit),
	)
	return models.NewPayloadTooLarge(size, limit)
}

// CheckDuration rejects audio longer than the configured maximum.
// Exactly the limit is accepted.
func (g *Guard) CheckDuration(seconds float64) error {
	if seconds <= g.limits.MaxAudioDurationSeconds {
		return nil
	}

	g.logger.Warn("Audio exceeds duration limit",
		logger.Float64("duration", seconds),
		logger.Float64("limit", g.limits.MaxAudioDurationSeconds),
	)
	return models.NewDurationExceeded(seconds, g.limits.MaxAudioDurationSeconds)
}
