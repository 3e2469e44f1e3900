package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/studyforge/quiz-session-service/internal/errors"
	"github.com/studyforge/quiz-session-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and response helpers for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogError logs error details with request context
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"request_id", c.GetHeader("X-Request-ID"),
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	fields = append(fields, additionalFields...)
	h.logger.LogError(err, message, fields...)
}

// RespondWithError maps a domain error onto an HTTP status and sends a
// consistent error body
func (h *BaseHandler) RespondWithError(c *gin.Context, err error, message string) {
	statusCode := statusForError(err)
	if statusCode >= http.StatusInternalServerError {
		h.LogError(c, err, message, "status_code", statusCode)
	} else {
		h.logger.Warn(message, "error", err, "status_code", statusCode, "path", c.Request.URL.Path)
	}

	c.JSON(statusCode, ErrorResponse{
		Message: message,
		Details: err.Error(),
	})
}

// RespondWithSuccess sends a consistent success response
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// statusForError is the single place the error taxonomy meets HTTP.
func statusForError(err error) int {
	var validationErrs apperrors.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrIndexOutOfRange),
		errors.Is(err, apperrors.ErrWrongAnswerKind):
		return http.StatusBadRequest
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidTransition),
		errors.Is(err, apperrors.ErrSessionActive),
		errors.Is(err, apperrors.ErrSubmissionRejected):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrSessionClosed):
		return http.StatusGone
	case apperrors.IsMalformed(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrNetworkFailure):
		return http.StatusBadGateway
	case errors.Is(err, apperrors.ErrValidationUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
