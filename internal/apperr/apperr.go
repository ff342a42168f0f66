// Package apperr provides structured, machine-tagged errors for the
// reasoning orchestration core (spec §7).
//
// Each error kind carries a stable machine tag plus a short human
// message; internal diagnostic detail (the wrapped Cause) is available
// via Unwrap for logging but is never required by callers to act on the
// tag. Propagation policy: upstream and persistence errors are recovered
// locally where possible; contract violations and unknown-state
// conditions are surfaced to the caller as one of these kinds.
package apperr

import "fmt"

// Kind is a stable, machine-readable error tag.
type Kind string

const (
	KindInvalidRequest       Kind = "InvalidRequest"
	KindUnknownSession       Kind = "UnknownSession"
	KindInvalidKind          Kind = "InvalidKind"
	KindSessionFailed        Kind = "SessionFailed"
	KindUnknownModel         Kind = "UnknownModel"
	KindUpstreamAuth         Kind = "UpstreamAuth"
	KindUpstreamTimeout      Kind = "UpstreamTimeout"
	KindUpstreamRateLimited  Kind = "UpstreamRateLimited"
	KindUpstreamOther        Kind = "UpstreamOther"
	KindPersistenceUnavailable Kind = "PersistenceUnavailable"
	KindMonitoringDegraded   Kind = "MonitoringDegraded"
	KindSynthesisParseFailure Kind = "SynthesisParseFailure"
	KindOverloaded           Kind = "Overloaded"
)

// Error is the structured error type surfaced to tool callers.
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// RetryAfterHint is set for KindOverloaded.
	RetryAfterHint string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, message string) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is an *Error with the given Kind.
func Is(err error, kind Kind) bool {
	ae, ok := err.(*Error)
	return ok && ae.Kind == kind
}

// Retryable reports whether the error kind is recovered locally via
// retry/backoff before being surfaced (spec §7).
func Retryable(kind Kind) bool {
	return kind == KindUpstreamTimeout || kind == KindUpstreamRateLimited
}
