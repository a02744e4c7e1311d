// Package errors provides coded errors shared by the shell, the client and
// the transports.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Widget and tree errors
	ErrCodeUnknownWidget    ErrorCode = "UNKNOWN_WIDGET"
	ErrCodeInvalidEnum      ErrorCode = "INVALID_ENUM"
	ErrCodeInvalidAttribute ErrorCode = "INVALID_ATTRIBUTE"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeDuplicate        ErrorCode = "DUPLICATE"

	// Native toolkit errors
	ErrCodeNativeCreate ErrorCode = "NATIVE_CREATE"
	ErrCodeNativeCall   ErrorCode = "NATIVE_CALL"

	// Transport errors
	ErrCodeNoReceiver ErrorCode = "NO_RECEIVER"
	ErrCodePipeClosed ErrorCode = "PIPE_CLOSED"
	ErrCodeProtocol   ErrorCode = "PROTOCOL"

	// Configuration errors
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigParse   ErrorCode = "CONFIG_PARSE"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error represents a structured error
type Error struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Context    map[string]any
}

// New creates a new structured error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// Newf is New with a formatted message
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a code. Wrapping nil returns nil.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Context:    make(map[string]any),
	}
}

// WithContext adds context key-value pairs to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s: %v", k, e.Context[k]))
		}
		sb.WriteString("}")
	}

	if e.Underlying != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Underlying))
	}

	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches another *Error with the same code, so sentinel values such as
// pipe.ErrNoReceiver compare equal to freshly constructed errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// IsCode reports whether any error in err's chain has the given code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Underlying
	}
	return false
}

// GetCode extracts the outermost error code
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var e *Error
	if !stderrors.As(err, &e) {
		return ErrCodeInternal
	}
	return e.Code
}
