package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/meeting-ingest/internal/service/transcript"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

type Handlers struct {
	Transcript *TranscriptHandler
}

func NewHandlers(
	transcriptService transcript.TranscriptService,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Transcript: NewTranscriptHandler(transcriptService, logger),
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
