// Package errors defines the structured errors the HTTP layer renders.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeExternal    ErrorType = "external"
	ErrorTypeDatabase    ErrorType = "database"
	ErrorTypeUnavailable ErrorType = "unavailable"
	ErrorTypeInternal    ErrorType = "internal"
)

const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInvalidCoordinate  = "INVALID_COORDINATE"
	CodeWaterSources       = "WATER_SOURCES_UNAVAILABLE"
	CodeAnalysisFailed     = "ANALYSIS_FAILED"
	CodeHistoryDisabled    = "HISTORY_DISABLED"
	CodeHistoryQueryFailed = "HISTORY_QUERY_FAILED"
)

// AppError represents a structured application error
type AppError struct {
	Type          ErrorType              `json:"type"`
	Code          string                 `json:"code"`
	Message       string                 `json:"message"`
	Details       string                 `json:"details,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Timestamp     time.Time              `json:"timestamp"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Cause         error                  `json:"-"`
	HTTPStatus    int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(errorType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Timestamp:  time.Now().UTC(),
		HTTPStatus: defaultHTTPStatus(errorType),
	}
}

// NewAppErrorWithCause keeps cause for errors.Is/As and copies its text into Details.
func NewAppErrorWithCause(errorType ErrorType, code, message string, cause error) *AppError {
	err := NewAppError(errorType, code, message)
	err.Cause = cause
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

func (e *AppError) WithCorrelationID(correlationID string) *AppError {
	e.CorrelationID = correlationID
	return e
}

func (e *AppError) WithMetadata(key string, value interface{}) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func (e *AppError) WithHTTPStatus(status int) *AppError {
	e.HTTPStatus = status
	return e
}

func defaultHTTPStatus(errorType ErrorType) int {
	switch errorType {
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(field, message string) *AppError {
	return NewAppError(ErrorTypeValidation, CodeInvalidRequest, message).
		WithMetadata("field", field)
}

// AsAppError unwraps err to an *AppError, wrapping unknown errors as internal ones.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewAppErrorWithCause(ErrorTypeInternal, "INTERNAL_ERROR", "internal error", err)
}
