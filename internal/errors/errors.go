package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"

	"github.com/gin-gonic/gin"
)

// Error type constants
const (
	ErrTypeDatabase   = "database"
	ErrTypeBackend    = "backend"
	ErrTypeHTTP       = "http"
	ErrTypeConfig     = "config"
	ErrTypeInvalidArg = "invalid_argument"
	ErrTypeAuth       = "authentication"
	ErrTypeNotFound   = "not_found"
	ErrTypeValidation = "validation"
	ErrTypeInternal   = "internal"
)

// AppError is the application error: a type tag, a message, an optional
// cause and the HTTP status it maps to.
type AppError struct {
	Type      string   `json:"type"`
	Message   string   `json:"message"`
	Cause     error    `json:"-"`
	Code      int      `json:"-"`
	Stack     []string `json:"-"`
	RequestID string   `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) String() string {
	return e.Error()
}

// Unwrap supports errors.Is / errors.As over the cause chain.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithStack captures the call stack, skipping runtime frames.
func (e *AppError) WithStack() *AppError {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	stack := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			stack = append(stack, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	e.Stack = stack
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func New(errType, message string, cause error, code int) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// Wrap turns err into an AppError. An existing AppError keeps its type and
// code; only the message is updated.
func Wrap(err error, errType, message string, code int) *AppError {
	if err == nil {
		return nil
	}

	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Type:    appErr.Type,
			Message: message,
			Cause:   appErr.Cause,
			Code:    appErr.Code,
			Stack:   appErr.Stack,
		}
	}

	return New(errType, message, err, code)
}

// Is reports whether err carries the given error type tag.
func Is(err error, errType string) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}

	return false
}

func GetType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}

	return "unknown"
}

func GetCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	return http.StatusInternalServerError
}

// RootCause walks the chain to the innermost error.
func RootCause(err error) error {
	for err != nil {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
	return err
}

func ErrInvalidArg(param string) *AppError {
	return New(ErrTypeInvalidArg, fmt.Sprintf("invalid arg: %s", param), nil, http.StatusBadRequest).WithStack()
}

func Database(message string, cause error) *AppError {
	return New(ErrTypeDatabase, message, cause, http.StatusInternalServerError).WithStack()
}

func Backend(message string, cause error) *AppError {
	return New(ErrTypeBackend, message, cause, http.StatusServiceUnavailable).WithStack()
}

func HTTP(message string, cause error) *AppError {
	return New(ErrTypeHTTP, message, cause, http.StatusInternalServerError).WithStack()
}

func Config(message string, cause error) *AppError {
	return New(ErrTypeConfig, message, cause, http.StatusInternalServerError).WithStack()
}

func NotFound(resource string, cause error) *AppError {
	message := fmt.Sprintf("resource not found: %s", resource)
	return New(ErrTypeNotFound, message, cause, http.StatusNotFound).WithStack()
}

// Unauthorized must never include the expected credential in message.
func Unauthorized(message string) *AppError {
	return New(ErrTypeAuth, message, nil, http.StatusUnauthorized).WithStack()
}

func Validation(message string, cause error) *AppError {
	return New(ErrTypeValidation, message, cause, http.StatusBadRequest).WithStack()
}

func Internal(message string, cause error) *AppError {
	return New(ErrTypeInternal, message, cause, http.StatusInternalServerError).WithStack()
}

// Err writes err as the HTTP response.
func Err(c *gin.Context, err error) {
	requestID := c.GetString("RequestID")

	if appErr, ok := err.(*AppError); ok {
		if requestID != "" {
			appErr.RequestID = requestID
		}
		c.JSON(appErr.Code, appErr)
		return
	}

	unknownErr := &AppError{
		Type:      "unknown",
		Message:   err.Error(),
		Code:      http.StatusInternalServerError,
		RequestID: requestID,
	}
	c.JSON(http.StatusInternalServerError, unknownErr)
}
