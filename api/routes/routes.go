package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/meeting-ingest/api/handlers"
	"github.com/feichai0017/meeting-ingest/api/middleware"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

type Options struct {
	AllowedOrigins []string
	MaxUploadBytes int64
}

// SetupRoutes registers every route and the global middleware.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, log logger.Logger, opts Options) {
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	r.GET("/health", handlers.HealthCheck)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.BodyLimit(opts.MaxUploadBytes))

	transcripts := v1.Group("/transcripts")
	{
		transcripts.POST("", h.Transcript.Ingest)
		transcripts.POST("/audio", h.Transcript.IngestAudio)
		transcripts.POST("/object", h.Transcript.IngestObject)
	}

	v1.POST("/summaries", h.Transcript.Summarize)
}
