package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/cyphera/cyphera-delegation/libs/go/logger"
	"github.com/cyphera/cyphera-delegation/libs/go/middleware"
	"github.com/cyphera/cyphera-delegation/libs/go/types/api/responses"
)

// statusForError maps a failure kind onto an HTTP status code
func statusForError(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.KindConfiguration, apperrors.KindInvalidAddress:
		return http.StatusBadRequest
	case apperrors.KindChainRead, apperrors.KindBroadcastRejected,
		apperrors.KindMissingFeeData, apperrors.KindChainIDMismatch:
		return http.StatusBadGateway
	case apperrors.KindInclusionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// sendError logs the failure and sends a JSON error response. The raw error
// text is returned so a node's rejection reason reaches the caller.
func sendError(c *gin.Context, err error) {
	status := statusForError(err)
	kind := string(apperrors.KindOf(err))

	l := logger.NewStructuredLogger(logger.ComponentServer).
		WithCorrelationID(middleware.GetCorrelationID(c)).
		WithFields(map[string]interface{}{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
			"kind":   kind,
		})
	if status >= http.StatusInternalServerError {
		l.Error("Request failed", err)
	} else {
		l.WithField("error", err.Error()).Warn("Request rejected")
	}

	c.JSON(status, responses.ErrorResponse{
		Error:     err.Error(),
		Kind:      kind,
		Transient: apperrors.IsTransient(err),
	})
}

// sendSuccess is a helper function that sends a success response
func sendSuccess(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}
