package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/meeting-ingest/internal/service/transcript"
	"github.com/feichai0017/meeting-ingest/pkg/converters"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type TranscriptHandler struct {
	service transcript.TranscriptService
	logger  logger.Logger
}

type ObjectRequest struct {
	Source string `json:"source" binding:"required,oneof=s3 minio"`
	Key    string `json:"key" binding:"required"`
}

type SummaryRequest struct {
	Transcript  string `json:"transcript" binding:"required"`
	Instruction string `json:"instruction"`
}

type SummaryResponse struct {
	Summary string `json:"summary"`
}

type ingestFunc func(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*converters.TranscriptDocument, error)

func NewTranscriptHandler(service transcript.TranscriptService, log logger.Logger) *TranscriptHandler {
	return &TranscriptHandler{
		service: service,
		logger:  log.Named("api"),
	}
}

// Ingest accepts any supported document or audio upload.
func (h *TranscriptHandler) Ingest(c *gin.Context) {
	h.ingestUpload(c, h.service.IngestUpload)
}

// IngestAudio accepts audio uploads only.
func (h *TranscriptHandler) IngestAudio(c *gin.Context) {
	h.ingestUpload(c, h.service.IngestAudioUpload)
}

func (h *TranscriptHandler) ingestUpload(c *gin.Context, ingest ingestFunc) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			handleError(c, h.logger, err)
			return
		}
		badRequest(c, h.logger, "Invalid file upload", err)
		return
	}
	defer file.Close()

	doc, err := ingest(c.Request.Context(), file, header)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// IngestObject pulls an artifact from S3 or MinIO.
func (h *TranscriptHandler) IngestObject(c *gin.Context) {
	var req ObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "Invalid object request", err)
		return
	}

	doc, err := h.service.IngestObject(c.Request.Context(), req.Source, req.Key)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Summarize returns JSON, or a Word document when format=docx.
func (h *TranscriptHandler) Summarize(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, "Invalid summary request", err)
		return
	}

	if c.Query("format") == "docx" {
		data, err := h.service.SummarizeDOCX(c.Request.Context(), req.Transcript, req.Instruction)
		if err != nil {
			handleError(c, h.logger, err)
			return
		}
		c.Header("Content-Disposition", "attachment; filename=summary.docx")
		c.Data(http.StatusOK, docxContentType, data)
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), req.Transcript, req.Instruction)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{Summary: summary})
}
