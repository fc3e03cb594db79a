package domain

import (
	"fmt"
	"strings"
)

// AuthError is fatal for the current operation and never retried.
type AuthError struct {
	Code        string
	Description string
}

func (e *AuthError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("authentication failed: %s", e.Code)
	}
	return fmt.Sprintf("authentication failed: %s: %s", e.Code, e.Description)
}

// TransportError is returned when the connection kept failing until the last attempt.
type TransportError struct {
	Attempts int
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RetriesExhaustedError is returned when every attempt ended in a retryable status.
type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Last }

// RequestError is a non-retryable HTTP status. Body is truncated.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Body)
}

type TranscriptionError struct {
	Reason string
	Err    error
}

func (e *TranscriptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcription failed: %s: %v", e.Reason, e.Err)
	}
	return "transcription failed: " + e.Reason
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// ExtractionError carries a message that is safe to show to the sender.
type ExtractionError struct {
	Missing []string
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	return e.Message
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ExampleRequest is the phrasing suggested to users whose message could not be parsed.
const ExampleRequest = `"Create customer AK005, name Abdo Khoury, group 80"`

// NewMissingFieldsError builds the user-facing message for incomplete extractions.
func NewMissingFieldsError(missing []string) *ExtractionError {
	return &ExtractionError{
		Missing: missing,
		Message: fmt.Sprintf(
			"Could not extract: %s. Please state your customer account ID, organization name, and customer group number. Example: %s",
			strings.Join(missing, ", "), ExampleRequest,
		),
	}
}

// ValidationError rejects an inbound request before any processing.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "request validation failed: " + e.Reason
}
