package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode представляет код ошибки
type ErrorCode string

const (
	// Общие ошибки
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"

	// Ошибки конкурсов
	ErrCodeContestNotFound    ErrorCode = "CONTEST_NOT_FOUND"
	ErrCodeNoActiveCycle      ErrorCode = "NO_ACTIVE_CYCLE"
	ErrCodeFinalizeInProgress ErrorCode = "FINALIZE_IN_PROGRESS"
	ErrCodeInvalidContest     ErrorCode = "INVALID_CONTEST"

	// Промокоды
	ErrCodePromoCodeConflict ErrorCode = "PROMO_CODE_CONFLICT"

	// Журнал доставки
	ErrCodeDeliveryLogNotFound ErrorCode = "DELIVERY_LOG_NOT_FOUND"
	ErrCodeDeliveryInProgress  ErrorCode = "DELIVERY_IN_PROGRESS"

	// Ошибки инфраструктуры
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError    ErrorCode = "CACHE_ERROR"
	ErrCodeExternalAPI   ErrorCode = "EXTERNAL_API_ERROR"
)

// AppError представляет типизированную ошибку приложения
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsNotFound проверяет, является ли ошибка ошибкой "не найдено"
func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound ||
		e.Code == ErrCodeContestNotFound ||
		e.Code == ErrCodeDeliveryLogNotFound
}

func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation || e.Code == ErrCodeInvalidContest || e.Code == ErrCodeBadRequest
}

func (e *AppError) IsConflict() bool {
	return e.Code == ErrCodeConflict ||
		e.Code == ErrCodeFinalizeInProgress ||
		e.Code == ErrCodeDeliveryInProgress ||
		e.Code == ErrCodePromoCodeConflict ||
		e.Code == ErrCodeNoActiveCycle
}

// IsInternal проверяет, является ли ошибка внутренней ошибкой
func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeDatabaseError ||
		e.Code == ErrCodeCacheError ||
		e.Code == ErrCodeExternalAPI
}

// WithContext добавляет контекст к ошибке
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail добавляет детальную информацию к ошибке
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// New создает новую ошибку приложения
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap оборачивает существующую ошибку
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf оборачивает существующую ошибку с форматированием
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Конструкторы для часто используемых ошибок

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewContestNotFoundError(contestID string) *AppError {
	return New(ErrCodeContestNotFound, fmt.Sprintf("Contest not found: %s", contestID)).
		WithDetail("contest_id", contestID)
}

func NewDeliveryLogNotFoundError(logID string) *AppError {
	return New(ErrCodeDeliveryLogNotFound, fmt.Sprintf("Delivery log not found: %s", logID)).
		WithDetail("log_id", logID)
}

// NewFinalizeInProgressError сообщает, что подведение итогов уже идет
func NewFinalizeInProgressError(contestID string) *AppError {
	return New(ErrCodeFinalizeInProgress, "Подведение итогов уже выполняется, повторите позже").
		WithDetail("contest_id", contestID)
}

func NewNoActiveCycleError(contestID string) *AppError {
	return New(ErrCodeNoActiveCycle, "У конкурса нет активного цикла").
		WithDetail("contest_id", contestID)
}

func NewDeliveryInProgressError(logID string) *AppError {
	return New(ErrCodeDeliveryInProgress, "Отправка уже выполняется").
		WithDetail("log_id", logID)
}

// AsAppError приводит ошибку к AppError, в том числе обернутую
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil && stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
