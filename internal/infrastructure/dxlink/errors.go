package dxlink

import (
	"errors"
	"fmt"
)

// ErrNoHandlers is a configuration error: a subscription needs at least one event handler.
var ErrNoHandlers = errors.New("at least one feed event handler must be provided")

// ErrConnection wraps transport dial, send and receive failures.
var ErrConnection = errors.New("streamer connection error")

// ErrAuthTimeout is returned by Open when AUTHORIZED is not seen in time.
var ErrAuthTimeout = errors.New("timed out waiting for streamer authorization")

// ErrNotAuthorized is returned when a feed subscription is attempted before authorization.
var ErrNotAuthorized = errors.New("streamer not authorized")

// ErrClosed is returned by Open on a subscription that was already closed.
var ErrClosed = errors.New("subscription closed")

// StreamerError is an ERROR frame sent by the server.
type StreamerError struct {
	Code    string
	Message string
}

func (e *StreamerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DecodeError reports a feed event payload that could not be decoded.
type DecodeError struct {
	EventType string
	Field     string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode %s event: %v", e.EventType, e.Err)
	}
	return fmt.Sprintf("decode %s event field %q: %v", e.EventType, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var errMissingField = errors.New("missing field")
