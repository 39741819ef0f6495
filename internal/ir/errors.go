package ir

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeUnknownAttribute indicates an attribute absent from the catalog.
	ErrCodeUnknownAttribute ErrorCode = "UNKNOWN_ATTRIBUTE"

	// ErrCodeMalformedCondition indicates a raw condition that cannot be parsed
	// or rendered (field count, logic prefix, comparator, parenthesis balance).
	ErrCodeMalformedCondition ErrorCode = "MALFORMED_CONDITION"

	// ErrCodeUnsupportedQueryType indicates an unrecognized leading shape field.
	ErrCodeUnsupportedQueryType ErrorCode = "UNSUPPORTED_QUERY_TYPE"

	// ErrCodeInvalidQueryShape indicates inconsistent attribute/condition counts.
	ErrCodeInvalidQueryShape ErrorCode = "INVALID_QUERY_SHAPE"

	// ErrCodeBackendExecution wraps any error returned by the backend.
	ErrCodeBackendExecution ErrorCode = "BACKEND_EXECUTION"
)

// QueryError is the error type returned by every stage of a query call.
// Err carries the underlying cause, if any, and is exposed through Unwrap.
type QueryError struct {
	Code      ErrorCode
	Message   string
	Attribute string
	Err       error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Attribute != "" {
		msg += fmt.Sprintf(" (attribute=%s)", e.Attribute)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewUnknownAttribute reports an attribute registered nowhere.
func NewUnknownAttribute(attribute string) *QueryError {
	return &QueryError{
		Code:      ErrCodeUnknownAttribute,
		Message:   "attribute is not registered in any fact table",
		Attribute: attribute,
	}
}

// NewMalformedCondition reports a condition that cannot be used.
func NewMalformedCondition(format string, args ...any) *QueryError {
	return &QueryError{Code: ErrCodeMalformedCondition, Message: fmt.Sprintf(format, args...)}
}

// NewUnsupportedQueryType reports an unknown shape marker.
func NewUnsupportedQueryType(shape string) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnsupportedQueryType,
		Message: fmt.Sprintf("query type %q is not valid", shape),
	}
}

// NewInvalidQueryShape reports inconsistent field counts.
func NewInvalidQueryShape(format string, args ...any) *QueryError {
	return &QueryError{Code: ErrCodeInvalidQueryShape, Message: fmt.Sprintf(format, args...)}
}

// NewBackendError wraps a backend error verbatim.
func NewBackendError(op string, err error) *QueryError {
	return &QueryError{Code: ErrCodeBackendExecution, Message: op, Err: err}
}

// CodeOf returns the code of the first QueryError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsUnknownAttribute reports whether err is an UNKNOWN_ATTRIBUTE error.
func IsUnknownAttribute(err error) bool { return CodeOf(err) == ErrCodeUnknownAttribute }

// IsMalformedCondition reports whether err is a MALFORMED_CONDITION error.
func IsMalformedCondition(err error) bool { return CodeOf(err) == ErrCodeMalformedCondition }

// IsUnsupportedQueryType reports whether err is an UNSUPPORTED_QUERY_TYPE error.
func IsUnsupportedQueryType(err error) bool { return CodeOf(err) == ErrCodeUnsupportedQueryType }

// IsInvalidQueryShape reports whether err is an INVALID_QUERY_SHAPE error.
func IsInvalidQueryShape(err error) bool { return CodeOf(err) == ErrCodeInvalidQueryShape }

// IsBackendFailure reports whether err is a BACKEND_EXECUTION error.
func IsBackendFailure(err error) bool { return CodeOf(err) == ErrCodeBackendExecution }
