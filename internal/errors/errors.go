package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of a wrapped AppError
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is or wraps an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// UserMessage returns the message meant for the person who uploaded the file,
// without the wrapped internal causes.
func UserMessage(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Predefined error codes
const (
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeDatabaseError     = "DATABASE_ERROR"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeFileTooLarge      = "FILE_TOO_LARGE"
	CodeEmptyFile         = "EMPTY_FILE"
	CodeParseError        = "PARSE_ERROR"
	CodeNoNumericColumns  = "NO_NUMERIC_COLUMNS"
)

// HTTPStatus maps an error to the status code the web layer responds with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeValidationError, CodeUnsupportedFormat, CodeEmptyFile, CodeParseError, CodeNoNumericColumns:
		return http.StatusUnprocessableEntity
	case CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func UnsupportedFormat(ext string) *AppError {
	return New(CodeUnsupportedFormat, fmt.Sprintf("Unsupported file format: %s", ext))
}

func FileTooLarge(size, limit int64) *AppError {
	return New(CodeFileTooLarge, fmt.Sprintf("File size (%.1f MB) exceeds the %.0f MB limit",
		float64(size)/(1024*1024), float64(limit)/(1024*1024)))
}

func EmptyFile(message string) *AppError {
	return New(CodeEmptyFile, message)
}

func ParseError(message string, cause error) *AppError {
	return &AppError{Code: CodeParseError, Message: message, Cause: cause}
}

func NoNumericColumns() *AppError {
	return New(CodeNoNumericColumns, "File must have at least 1 numeric column for analysis")
}
