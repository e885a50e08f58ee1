package source

import (
	"context"
	"errors"
	"fmt"
)

// Kind categorizes a source failure for logging and tests. The merge layer
// treats every kind the same way (the source simply has no opinion); the
// taxonomy exists so an outage and a format change are distinguishable in
// the logs.
type Kind string

const (
	// KindNetwork indicates a transport-level failure (connection refused,
	// DNS, reset).
	KindNetwork Kind = "network"
	// KindTimeout indicates the per-source budget elapsed before a response.
	KindTimeout Kind = "timeout"
	// KindUpstream indicates the provider answered but refused the request
	// (non-2xx status, or an explicit failure flag in the payload).
	KindUpstream Kind = "upstream"
	// KindMalformed indicates the response could not be interpreted as the
	// provider's expected shape at all. A single missing or empty field is
	// never malformed; it normalizes to the zero value instead.
	KindMalformed Kind = "malformed"
	// KindInternal indicates the adapter itself failed, such as a recovered
	// panic. It points at a bug in this process rather than at the provider.
	KindInternal Kind = "internal"
)

// Error is a typed failure from one source's fetch. It is localized to that
// source: the coordinator records it as the source's result and never lets it
// escalate past the merge.
type Error struct {
	Source     string
	Kind       Kind
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s error (status %d): %s", e.Source, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Source, e.Kind, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewTransportError classifies a transport failure from the HTTP client,
// separating timeouts from other network problems.
func NewTransportError(source string, cause error) *Error {
	if errors.Is(cause, context.DeadlineExceeded) || errors.Is(cause, context.Canceled) {
		return &Error{
			Source:  source,
			Kind:    KindTimeout,
			Message: "request timed out",
			Cause:   cause,
		}
	}
	return &Error{
		Source:  source,
		Kind:    KindNetwork,
		Message: "network request failed",
		Cause:   cause,
	}
}

// NewUpstreamError reports a provider-side refusal, typically a non-2xx
// status code.
func NewUpstreamError(source string, statusCode int) *Error {
	return &Error{
		Source:     source,
		Kind:       KindUpstream,
		StatusCode: statusCode,
		Message:    "provider returned an error",
	}
}

// NewUpstreamRefusal reports a 2xx response whose payload carries an explicit
// failure flag, such as Ant Fund's success=false envelope.
func NewUpstreamRefusal(source, message string) *Error {
	return &Error{
		Source:  source,
		Kind:    KindUpstream,
		Message: message,
	}
}

// NewInternalError reports a failure inside the adapter itself, such as a
// recovered panic.
func NewInternalError(source, message string) *Error {
	return &Error{
		Source:  source,
		Kind:    KindInternal,
		Message: message,
	}
}

// NewMalformedError reports a response body that does not match the
// provider's expected shape.
func NewMalformedError(source, message string, cause error) *Error {
	return &Error{
		Source:  source,
		Kind:    KindMalformed,
		Message: message,
		Cause:   cause,
	}
}
