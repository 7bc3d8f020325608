// Package errz provides the shared error taxonomy for the messaging core and
// the activities built on it.
package errz

import "errors"

// Peer and backpressure errors. These are recoverable: callers log them and
// continue their loop.
var (
	ErrChannelUnavailable = errors.New("channel unavailable")
	ErrQueueFull          = errors.New("queue full")
	ErrWouldBlock         = errors.New("operation would block")
)

// Protocol errors. The operation is rejected as a whole, nothing is partially
// sent or received.
var (
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrMessageTooLong     = errors.New("message too long")
	ErrMalformedEnvelope  = errors.New("malformed envelope")
	ErrInvalidName        = errors.New("invalid name")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// Resource errors.
var (
	ErrIOFailure     = errors.New("i/o failure")
	ErrChannelClosed = errors.Join(ErrIOFailure, errors.New("channel closed"))
)

// IsRecoverable reports whether err is a transient condition that a subsystem
// loop should log and retry rather than treat as fatal.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrChannelUnavailable) ||
		errors.Is(err, ErrQueueFull) ||
		errors.Is(err, ErrWouldBlock)
}
