package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/meeting-ingest/internal/models"
	"github.com/feichai0017/meeting-ingest/internal/summarizer"
	"github.com/feichai0017/meeting-ingest/pkg/logger"
	"github.com/feichai0017/meeting-ingest/pkg/storage"
)

// ErrorResponse is the body of every non-2xx response. Kind, Measured and
// Limit are only set for ingestion failures.
type ErrorResponse struct {
	Error    string   `json:"error"`
	Message  string   `json:"message"`
	Kind     string   `json:"kind,omitempty"`
	Measured *float64 `json:"measured,omitempty"`
	Limit    *float64 `json:"limit,omitempty"`
}

var kindStatus = map[models.ErrorKind]int{
	models.KindPayloadTooLarge:          http.StatusRequestEntityTooLarge,
	models.KindDurationExceeded:         http.StatusUnprocessableEntity,
	models.KindUnsupportedFormat:        http.StatusUnsupportedMediaType,
	models.KindEncodingError:            http.StatusUnprocessableEntity,
	models.KindCorruptDocument:          http.StatusUnprocessableEntity,
	models.KindUnsupportedAudioEncoding: http.StatusUnprocessableEntity,
	models.KindEmptyContent:             http.StatusUnprocessableEntity,
	models.KindTranscriptionFailed:      http.StatusBadGateway,
}

// errorResponse classifies err into a status code and body.
func errorResponse(err error) (int, ErrorResponse) {
	if ie, ok := models.AsIngestionError(err); ok {
		resp := ErrorResponse{
			Error:   err.Error(),
			Message: "Ingestion failed",
			Kind:    string(ie.Kind),
		}
		if ie.HasLimit() {
			measured, limit := ie.Measured, ie.Limit
			resp.Measured = &measured
			resp.Limit = &limit
		}
		status, ok := kindStatus[ie.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		return status, resp
	}

	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		limit := float64(maxBytes.Limit)
		return http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   err.Error(),
			Message: "Request body too large",
			Kind:    string(models.KindPayloadTooLarge),
			Limit:   &limit,
		}
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error(), Message: "Object not found"}
	case errors.Is(err, storage.ErrUnknownSource):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Message: "Unknown artifact source"}
	case errors.Is(err, summarizer.ErrTranscriptTooShort), errors.Is(err, summarizer.ErrInstructionTooShort):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Message: "Invalid summarization request"}
	case errors.Is(err, summarizer.ErrNotConfigured):
		return http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Message: "Summarization is not configured"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: err.Error(), Message: "Request timed out"}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Message: "Internal server error"}
}

func handleError(c *gin.Context, log logger.Logger, err error) {
	status, resp := errorResponse(err)

	log = logger.FromContext(c.Request.Context(), log)
	fields := []logger.Field{
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
		logger.Error(err),
	}
	if status >= http.StatusInternalServerError {
		log.Error(resp.Message, fields...)
	} else {
		log.Warn(resp.Message, fields...)
	}

	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, log logger.Logger, message string, err error) {
	logger.FromContext(c.Request.Context(), log).Warn(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Message: message})
}
