package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"contest-tool-backend/internal/common/errors"
)

// ErrorHandler middleware для обработки паник
func ErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := getRequestID(c)
		stack := string(debug.Stack())

		log.Error().
			Str("request_id", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Interface("panic", recovered).
			Str("stack", stack).
			Msg("Panic recovered")

		// Стек пишем только в лог, клиенту он не нужен
		appErr := errors.New(errors.ErrCodeInternal, "Internal server error").
			WithDetail("panic", fmt.Sprintf("%v", recovered))

		sendErrorResponse(c, appErr, log)
		c.Abort()
	})
}

// RequestID middleware для добавления ID запроса
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Success   bool             `json:"success"`
	Error     *errors.AppError `json:"error"`
	Timestamp time.Time        `json:"timestamp"`
	RequestID string           `json:"request_id"`
	Path      string           `json:"path,omitempty"`
	Method    string           `json:"method,omitempty"`
}

func sendErrorResponse(c *gin.Context, appErr *errors.AppError, log zerolog.Logger) {
	requestID := getRequestID(c)

	appErr.WithRequestID(requestID).
		WithContext("path", c.Request.URL.Path).
		WithContext("method", c.Request.Method)

	statusCode := HTTPStatusCode(appErr)

	response := ErrorResponse{
		Success:   false,
		Error:     appErr,
		Timestamp: time.Now(),
		RequestID: requestID,
		Path:      c.Request.URL.Path,
		Method:    c.Request.Method,
	}

	logError(appErr, log, c)

	c.JSON(statusCode, response)
}

// HTTPStatusCode возвращает HTTP статус код для ошибки
func HTTPStatusCode(appErr *errors.AppError) int {
	switch appErr.Code {
	case errors.ErrCodeValidation, errors.ErrCodeInvalidContest, errors.ErrCodeBadRequest:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeContestNotFound, errors.ErrCodeDeliveryLogNotFound:
		return http.StatusNotFound
	case errors.ErrCodeConflict, errors.ErrCodeFinalizeInProgress, errors.ErrCodeDeliveryInProgress,
		errors.ErrCodePromoCodeConflict, errors.ErrCodeNoActiveCycle:
		return http.StatusConflict
	case errors.ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case errors.ErrCodeDatabaseError:
		return http.StatusInternalServerError
	case errors.ErrCodeCacheError:
		return http.StatusServiceUnavailable
	case errors.ErrCodeExternalAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func logError(appErr *errors.AppError, log zerolog.Logger, c *gin.Context) {
	var event *zerolog.Event
	switch {
	case appErr.IsInternal():
		event = log.Error()
	case appErr.IsValidation(), appErr.IsNotFound():
		event = log.Info()
	case appErr.IsConflict():
		event = log.Warn()
	default:
		event = log.Error()
	}

	event = event.
		Str("request_id", getRequestID(c)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("error_code", string(appErr.Code)).
		Str("error_message", appErr.Message)

	if len(appErr.Details) > 0 {
		event = event.Interface("details", appErr.Details)
	}
	if appErr.Cause != nil {
		event = event.Err(appErr.Cause)
	}

	event.Msg("Request failed")
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return "unknown"
}

// HandleErrorWrapper оборачивает обработчики для автоматической обработки ошибок.
// Обработчик кладет ошибку через c.Error, ответ формируется здесь.
func HandleErrorWrapper(log zerolog.Logger) func(gin.HandlerFunc) gin.HandlerFunc {
	return func(handler gin.HandlerFunc) gin.HandlerFunc {
		return func(c *gin.Context) {
			handler(c)

			if len(c.Errors) == 0 || c.Writer.Written() {
				return
			}

			err := c.Errors.Last().Err
			if appErr, ok := errors.AsAppError(err); ok {
				sendErrorResponse(c, appErr, log)
				return
			}

			sendErrorResponse(c, errors.Wrap(err, errors.ErrCodeInternal, "Handler error occurred"), log)
		}
	}
}
