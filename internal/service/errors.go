package service

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorType int

const (
	ErrAvailabilityGap ErrorType = iota
	ErrTaskSkip
	ErrStrategyFailure
	ErrMergeFailure
	ErrJobFatal
	ErrCancelled
	ErrValidation
	ErrNotFound
	ErrUnknown
)

// DualSubError carries the failure class alongside free-form context, so
// callers can branch on Type while logs keep the detail.
type DualSubError struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *DualSubError {
	return &DualSubError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *DualSubError {
	return &DualSubError{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func (e *DualSubError) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		var ctxParts []string
		for k, v := range e.Context {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, v))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *DualSubError) Unwrap() error {
	return e.Cause
}

func (e *DualSubError) WithContext(key string, value any) *DualSubError {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrAvailabilityGap:
		return "AvailabilityGap"
	case ErrTaskSkip:
		return "TaskSkip"
	case ErrStrategyFailure:
		return "StrategyFailure"
	case ErrMergeFailure:
		return "MergeFailure"
	case ErrJobFatal:
		return "JobFatal"
	case ErrCancelled:
		return "Cancelled"
	case ErrValidation:
		return "Validation"
	case ErrNotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var dualErr *DualSubError
	if errors.As(err, &dualErr) {
		return dualErr.Type == errorType
	}
	return false
}

func WrapError(err error, errorType ErrorType, message string) *DualSubError {
	return NewErrorWithCause(errorType, message, err)
}
