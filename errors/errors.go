package errors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Boundary errors surfaced by exporters and importers
	ErrorTypeNoFileConfigured ErrorType = "no_file_configured"
	ErrorTypeIO               ErrorType = "io"
	ErrorTypeCannotParse      ErrorType = "cannot_parse"
	ErrorTypeUnexpectedShape  ErrorType = "unexpected_shape"

	// Setup errors
	ErrorTypeInvalid ErrorType = "invalid"

	// System errors
	ErrorTypeInternal ErrorType = "internal"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error codes for specific scenarios
const (
	CodeNoFileConfigured = "NO_FILE_CONFIGURED"
	CodeIOFailed         = "IO_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeCannotParse      = "CANNOT_PARSE"
	CodeUnexpectedShape  = "UNEXPECTED_SHAPE"
	CodeInvalidConfig    = "INVALID_CONFIG"
	CodeInternalError    = "INTERNAL_ERROR"
)

// Sentinels usable with errors.Is. Matching is by ErrorType only.
var (
	ErrNoFileConfigured = &AppError{Type: ErrorTypeNoFileConfigured}
	ErrIO               = &AppError{Type: ErrorTypeIO}
	ErrCannotParse      = &AppError{Type: ErrorTypeCannotParse}
	ErrUnexpectedShape  = &AppError{Type: ErrorTypeUnexpectedShape}
	ErrInvalid          = &AppError{Type: ErrorTypeInvalid}
)

// AppError represents a structured error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	InnerError error                  `json:"-"`
	Stack      []string               `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Type)
	}
	if e.InnerError != nil {
		return msg + ": " + e.InnerError.Error()
	}
	return msg
}

// Unwrap returns the inner error
func (e *AppError) Unwrap() error {
	return e.InnerError
}

// WithMessage adds a message to the error
func (e *AppError) WithMessage(msg string) *AppError {
	e.Message = msg
	return e
}

// WithCode adds a code to the error
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithInnerError sets the inner error
func (e *AppError) WithInnerError(err error) *AppError {
	e.InnerError = err
	return e
}

// WithStack captures the call stack
func (e *AppError) WithStack() *AppError {
	e.Stack = captureStack(2)
	return e
}

// Detail returns a detail value, or nil.
func (e *AppError) Detail(key string) interface{} {
	if e.Details == nil {
		return nil
	}
	return e.Details[key]
}

// Is checks if this error is of a specific type
func (e *AppError) Is(target error) bool {
	if targetApp, ok := target.(*AppError); ok {
		return e.Type == targetApp.Type
	}
	return false
}

// New creates a new AppError
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Code:    string(errType),
	}
}

// FromError converts a standard error to AppError
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	return &AppError{
		Type:       ErrorTypeUnknown,
		Message:    err.Error(),
		InnerError: err,
	}
}

// WrapWithType wraps an error with a specific type
func WrapWithType(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		InnerError: err,
		Code:       string(errType),
	}
}

// NewNoFileConfigured reports an export or import with no path given and none remembered.
func NewNoFileConfigured(operation string) *AppError {
	return New(ErrorTypeNoFileConfigured, fmt.Sprintf("%s: no file configured", operation)).
		WithCode(CodeNoFileConfigured).
		WithDetail("operation", operation)
}

// NewIO wraps a failed read or write of path.
func NewIO(op, path string, err error) *AppError {
	return WrapWithType(err, ErrorTypeIO, fmt.Sprintf("%s %s", op, path)).
		WithCode(CodeIOFailed).
		WithDetail("op", op).
		WithDetail("path", path)
}

// NewNotFound is an IO error for a missing document.
func NewNotFound(path string) *AppError {
	return New(ErrorTypeIO, fmt.Sprintf("read %s: not found", path)).
		WithCode(CodeNotFound).
		WithDetail("op", "read").
		WithDetail("path", path)
}

// NewCannotParse reports text that is not a well-formed JSON document.
func NewCannotParse(err error) *AppError {
	return WrapWithType(err, ErrorTypeCannotParse, "cannot parse JSON").
		WithCode(CodeCannotParse)
}

// NewUnexpectedShape reports a well-formed value that lacks the keys or types a builder expects.
func NewUnexpectedShape(path, expected, got string) *AppError {
	return New(ErrorTypeUnexpectedShape, fmt.Sprintf("unexpected shape at %s: expected %s, got %s", path, expected, got)).
		WithCode(CodeUnexpectedShape).
		WithDetail("path", path).
		WithDetail("expected", expected).
		WithDetail("got", got)
}

// NewInvalid reports a bad configuration value.
func NewInvalid(field string, value interface{}, reason string) *AppError {
	return New(ErrorTypeInvalid, fmt.Sprintf("invalid value for %s: %v (%s)", field, value, reason)).
		WithCode(CodeInvalidConfig).
		WithDetail("field", field).
		WithDetail("value", value).
		WithDetail("reason", reason)
}

func NewInternal(message string) *AppError {
	return New(ErrorTypeInternal, message).WithCode(CodeInternalError)
}

func hasType(err error, errType ErrorType) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Type == errType
}

// IsNoFileConfigured reports whether err is a NoFileConfiguredError.
func IsNoFileConfigured(err error) bool { return hasType(err, ErrorTypeNoFileConfigured) }

// IsIO reports whether err is an IOError.
func IsIO(err error) bool { return hasType(err, ErrorTypeIO) }

// IsCannotParse reports whether err is a CannotParseError.
func IsCannotParse(err error) bool { return hasType(err, ErrorTypeCannotParse) }

// IsUnexpectedShape reports whether err is an UnexpectedShapeError.
func IsUnexpectedShape(err error) bool { return hasType(err, ErrorTypeUnexpectedShape) }

// IsInvalid reports whether err is a configuration error.
func IsInvalid(err error) bool { return hasType(err, ErrorTypeInvalid) }

// ErrorFormatter formats errors for display
type ErrorFormatter struct {
	showStack bool
	showInner bool
}

// NewErrorFormatter creates a new error formatter
func NewErrorFormatter(showStack bool, showInner bool) *ErrorFormatter {
	return &ErrorFormatter{
		showStack: showStack,
		showInner: showInner,
	}
}

// Format formats an error as a string
func (f *ErrorFormatter) Format(err error) string {
	if err == nil {
		return ""
	}

	appErr := FromError(err)

	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", appErr.Type, appErr.Message))

	if appErr.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", appErr.Code))
	}

	if len(appErr.Details) > 0 {
		for _, k := range sortedKeys(appErr.Details) {
			parts = append(parts, fmt.Sprintf("%s=%v", k, appErr.Details[k]))
		}
	}

	if f.showStack && len(appErr.Stack) > 0 {
		parts = append(parts, "stack:")
		for _, s := range appErr.Stack {
			parts = append(parts, "  "+s)
		}
	}

	if f.showInner && appErr.InnerError != nil {
		parts = append(parts, "caused_by: "+appErr.InnerError.Error())
	}

	return strings.Join(parts, " | ")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// captureStack captures the call stack
func captureStack(skip int) []string {
	var stack []string
	for i := skip; i < 10; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		funcName := fn.Name()
		if idx := strings.LastIndex(funcName, "/"); idx >= 0 {
			funcName = funcName[idx+1:]
		}

		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, funcName))
	}
	return stack
}

// ErrorChain collects errors from a sequence of operations
type ErrorChain struct {
	errors []*AppError
}

// NewErrorChain creates a new error chain
func NewErrorChain() *ErrorChain {
	return &ErrorChain{
		errors: make([]*AppError, 0),
	}
}

// Add adds an error to the chain
func (c *ErrorChain) Add(err error) *ErrorChain {
	if err != nil {
		c.errors = append(c.errors, FromError(err))
	}
	return c
}

// HasErrors checks if the chain has errors
func (c *ErrorChain) HasErrors() bool {
	return len(c.errors) > 0
}

// Error returns the combined error message
func (c *ErrorChain) Error() string {
	if !c.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range c.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, " | ")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (c *ErrorChain) Unwrap() []error {
	out := make([]error, len(c.errors))
	for i, err := range c.errors {
		out[i] = err
	}
	return out
}

// Errors returns all errors in the chain
func (c *ErrorChain) Errors() []*AppError {
	return c.errors
}

// Len returns the number of collected errors
func (c *ErrorChain) Len() int {
	return len(c.errors)
}

// First returns the first error in the chain
func (c *ErrorChain) First() *AppError {
	if len(c.errors) == 0 {
		return nil
	}
	return c.errors[0]
}

// Filter filters errors by type
func (c *ErrorChain) Filter(errType ErrorType) *ErrorChain {
	filtered := NewErrorChain()
	for _, err := range c.errors {
		if err.Type == errType {
			filtered.Add(err)
		}
	}
	return filtered
}

// HasType checks if the chain has an error of the specified type
func (c *ErrorChain) HasType(errType ErrorType) bool {
	for _, err := range c.errors {
		if err.Type == errType {
			return true
		}
	}
	return false
}

// ErrOrNil returns the chain as an error, or nil when it is empty.
func (c *ErrorChain) ErrOrNil() error {
	if c == nil || !c.HasErrors() {
		return nil
	}
	return c
}
