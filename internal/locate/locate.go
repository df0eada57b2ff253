// Package locate determines the requester's current position.
package locate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Options mirror the browser geolocation options.
type Options struct {
	EnableHighAccuracy bool
	Timeout            time.Duration
	// MaximumAge is how old a previously obtained position may be and
	// still be returned without probing again.
	MaximumAge time.Duration
}

// DefaultOptions returns high accuracy, a 10s timeout and a 60s maximum age.
func DefaultOptions() Options {
	return Options{
		EnableHighAccuracy: true,
		Timeout:            10 * time.Second,
		MaximumAge:         60 * time.Second,
	}
}

// Position is a located point. Accuracy is in meters; zero means unknown.
type Position struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Accuracy  float64   `json:"accuracy"`
	Timestamp time.Time `json:"timestamp"`
}

// Probe obtains the current position.
type Probe interface {
	Locate(ctx context.Context, opts Options) (Position, error)
}

// Code classifies a probe failure. Values match the browser
// GeolocationPositionError codes.
type Code int

const (
	CodeUnknown             Code = 0
	CodePermissionDenied    Code = 1
	CodePositionUnavailable Code = 2
	CodeTimeout             Code = 3
)

func (c Code) String() string {
	switch c {
	case CodePermissionDenied:
		return "permission_denied"
	case CodePositionUnavailable:
		return "position_unavailable"
	case CodeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// MessagePrefix starts every user-facing location failure message.
const MessagePrefix = "Unable to retrieve your location. "

// Error is a classified probe failure.
type Error struct {
	Code Code
	Err  error
}

// NewError returns an Error with the given code and optional cause.
func NewError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("locate: %s: %v", e.Code, e.Err)
	}
	return "locate: " + e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the text shown to the user for this failure.
func (e *Error) Message() string {
	switch e.Code {
	case CodePermissionDenied:
		return MessagePrefix + "Please allow location access in your browser settings."
	case CodePositionUnavailable:
		return MessagePrefix + "Location information is unavailable."
	case CodeTimeout:
		return MessagePrefix + "Location request timed out. Please try again."
	default:
		return MessagePrefix + "An unknown error occurred."
	}
}

// Classify converts any probe error into an *Error. Context deadline
// errors become timeouts; anything unrecognised is unknown.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(CodeTimeout, err)
	}
	return NewError(CodeUnknown, err)
}

type requesterKey struct{}

// WithRequester attaches the requesting client's address to ctx. Probes
// that locate by network address read it back with RequesterFrom.
func WithRequester(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, requesterKey{}, addr)
}

// RequesterFrom returns the address set by WithRequester, or "".
func RequesterFrom(ctx context.Context) string {
	addr, _ := ctx.Value(requesterKey{}).(string)
	return addr
}
