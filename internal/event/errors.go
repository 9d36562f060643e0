package event

import (
	"errors"
	"fmt"
)

// Kind classifies a failed extraction attempt. The set is closed: every
// failure the pipeline can produce maps to exactly one kind.
type Kind string

const (
	KindInputTooLong      Kind = "input_too_long"
	KindUnauthenticated   Kind = "unauthenticated"
	KindTransportFailure  Kind = "transport_failure"
	KindHTTPFailure       Kind = "http_failure"
	KindMalformedReply    Kind = "malformed_reply"
	KindValidationFailure Kind = "validation_failure"
	KindEncodingFailure   Kind = "encoding_failure"
	KindTimeout           Kind = "timeout"
)

// Error is the single error type crossing the pipeline boundary. The
// diagnostic payload (HTTP status and body, or the raw model reply) is part
// of the value so callers can surface it without digging through logs.
type Error struct {
	Kind   Kind
	Field  string // offending field for validation failures
	Status int    // HTTP status for http failures
	Body   string // raw response body for http failures
	Raw    string // raw model reply for malformed/validation failures
	Err    error  // underlying cause, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPFailure:
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.Status, e.Body)
	case KindValidationFailure:
		return fmt.Sprintf("%s: field %q", e.Kind, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err, or an empty Kind when err did
// not originate in the pipeline.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
