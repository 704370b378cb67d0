package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrSerializationFailure   = errors.New("serialization failure")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrInvalidInput           = errors.New("invalid input")
	ErrMissingToken           = errors.New("payment token missing")
	ErrTokenConsumed          = errors.New("payment token already used")
	ErrProcessor              = errors.New("payment processor error")
	ErrRollbackPartialFailure = errors.New("rollback partially failed")
	ErrRecordingFailure       = errors.New("settlement recording failed")
)

type FailureCategory string

const (
	CategoryDeclined           FailureCategory = "declined"
	CategoryInvalidToken       FailureCategory = "invalid_token"
	CategoryMissingToken       FailureCategory = "missing_token"
	CategoryServiceUnavailable FailureCategory = "service_unavailable"
	CategoryUnknown            FailureCategory = "unknown"
)

// ProcessorError is returned by processor clients when a charge is rejected or
// cannot be completed.
type ProcessorError struct {
	Message  string
	Category FailureCategory
	Code     string
}

func (e *ProcessorError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return e.Message
}

func (e *ProcessorError) Is(target error) bool {
	return target == ErrProcessor
}

func NewProcessorError(category FailureCategory, message string) *ProcessorError {
	return &ProcessorError{Message: message, Category: category}
}
