package geocode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

// Kind classifies geocoding failures.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInput means the request was rejected locally; nothing was sent.
	KindInput
	// KindTransport covers network failures and non-2xx responses.
	KindTransport
	// KindNoResults means the service answered with an empty result list.
	KindNoResults
	// KindDecode means the response body was not valid JSON.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindTransport:
		return "transport"
	case KindNoResults:
		return "no_results"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// User-facing messages.
const (
	MsgEmptyQuery = "Please enter a location to search for"
	MsgNoResults  = "No results found for this address. Try a more specific search."
)

// Error is a classified geocoding failure. Reason is safe to show to
// users; Err carries the underlying cause when there is one.
type Error struct {
	Kind   Kind
	Status int
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocode: %s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("geocode: %s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindUnknown if err is not a
// geocoding error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}

// Reason returns the user-facing reason for err.
func Reason(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsServiceFailure reports whether err means the service itself is
// unhealthy: transport and decode failures, but not empty results, bad
// input or a cancelled caller.
func IsServiceFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch KindOf(err) {
	case KindTransport, KindDecode:
		return true
	default:
		return false
	}
}

// NewInputError returns the error for a blank query.
func NewInputError() error {
	return &Error{Kind: KindInput, Reason: MsgEmptyQuery}
}

func statusError(status int) error {
	return &Error{Kind: KindTransport, Status: status, Reason: fmt.Sprintf("API request failed: %d", status)}
}

func transportError(err error) error {
	return &Error{Kind: KindTransport, Reason: "API request failed", Err: eris.Wrap(err, "geocode: request")}
}

func decodeError(err error) error {
	return &Error{Kind: KindDecode, Reason: "API response could not be read", Err: eris.Wrap(err, "geocode: decode response")}
}

func noResultsError() error {
	return &Error{Kind: KindNoResults, Reason: MsgNoResults}
}
