package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeParse represents malformed segment rows or time ranges
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeLookup represents references to tracks or content that do not exist
	ErrorTypeLookup ErrorType = "lookup"
	// ErrorTypeTransport represents network and timeout errors on provider calls
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeDecode represents malformed provider payloads
	ErrorTypeDecode ErrorType = "decode"
	// ErrorTypeRateLimit represents provider-side rate limiting
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeScoring represents sentiment scorer failures
	ErrorTypeScoring ErrorType = "scoring"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError is a failure scoped to the smallest unit of work it affects
// (a segment, a page, a single text).
type PipelineError struct {
	Type    ErrorType
	Unit    string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Unit, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Unit, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *PipelineError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeTransport, ErrorTypeRateLimit:
		return true
	default:
		return false
	}
}

// New creates a new PipelineError
func New(errType ErrorType, unit, message string, err error) *PipelineError {
	return &PipelineError{
		Type:    errType,
		Unit:    unit,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewParse creates a new parse error
func NewParse(unit, message string, err error) *PipelineError {
	return New(ErrorTypeParse, unit, message, err)
}

// NewLookup creates a new lookup error
func NewLookup(unit, message string) *PipelineError {
	return New(ErrorTypeLookup, unit, message, nil)
}

// NewTransport creates a new transport error
func NewTransport(unit, message string, err error) *PipelineError {
	return New(ErrorTypeTransport, unit, message, err)
}

// NewDecode creates a new decode error
func NewDecode(unit, message string, err error) *PipelineError {
	return New(ErrorTypeDecode, unit, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(unit string, duration time.Duration) *PipelineError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, unit, message, nil)
}

// NewScoring creates a new scoring error
func NewScoring(unit, message string, err error) *PipelineError {
	return New(ErrorTypeScoring, unit, message, err)
}

// NewCache creates a new cache error
func NewCache(unit, message string, err error) *PipelineError {
	return New(ErrorTypeCache, unit, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(unit, message string, err error) *PipelineError {
	return New(ErrorTypePublisher, unit, message, err)
}

// NewValidation creates a new validation error
func NewValidation(unit, message string) *PipelineError {
	return New(ErrorTypeValidation, unit, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// IsType reports whether any error in err's chain is a PipelineError of the given type
func IsType(err error, errType ErrorType) bool {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Type == errType
	}
	return false
}

// IsRetryable reports whether err carries a retryable PipelineError
func IsRetryable(err error) bool {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return false
}
