// Package envelope implements the wire format exchanged between activities:
// a length-prefixed payload optionally followed by the sender's identity.
//
//	[length: uint64][payload: length bytes][sender: id uint32 + name [32]byte]
//
// The sender block is present only when the sender is itself an activity.
package envelope

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/atlanticdynamic/coffeemaker/internal/errz"
)

const (
	// MaxMessageSize bounds a complete envelope, prefix and sender block included.
	MaxMessageSize = 1024

	// MaxNameLength is the size of the zero-padded name field in the sender block.
	MaxNameLength = 32

	// LengthPrefixSize is the size of the payload length field.
	LengthPrefixSize = 8

	// SenderBlockSize is the size of the optional sender identity block.
	SenderBlockSize = 4 + MaxNameLength

	// MaxPayloadSize is the largest payload that still fits with a sender block.
	MaxPayloadSize = MaxMessageSize - LengthPrefixSize - SenderBlockSize
)

var byteOrder = binary.LittleEndian

// Identity names the activity that sent a message.
type Identity struct {
	ID   uint32
	Name string
}

// UnknownSender is reported to receivers that ask for the sender of an
// anonymous message.
var UnknownSender = Identity{Name: "<Unknown sender>"}

func (i Identity) String() string {
	return i.Name
}

// IsUnknown reports whether i is the UnknownSender placeholder.
func (i Identity) IsUnknown() bool {
	return i == UnknownSender
}

// ValidateName checks that name can be carried in a sender block and used as a
// channel name.
func ValidateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", errz.ErrInvalidName)
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: %q exceeds %d bytes", errz.ErrInvalidName, name, MaxNameLength)
	case bytes.IndexByte([]byte(name), 0) >= 0:
		return fmt.Errorf("%w: %q contains a NUL byte", errz.ErrInvalidName, name)
	}
	return nil
}

// Envelope is a decoded message.
type Envelope struct {
	Payload []byte

	// Sender is UnknownSender when Anonymous is true.
	Sender    Identity
	Anonymous bool
}

// Size returns the encoded size of a payload of the given length.
func Size(payloadLen int, withSender bool) int {
	size := LengthPrefixSize + payloadLen
	if withSender {
		size += SenderBlockSize
	}
	return size
}

// Encode serializes payload and, when sender is non-nil, the sender identity.
func Encode(payload []byte, sender *Identity) ([]byte, error) {
	size := Size(len(payload), sender != nil)
	if size > MaxMessageSize {
		return nil, fmt.Errorf("%w: envelope of %d bytes exceeds %d", errz.ErrPayloadTooLarge, size, MaxMessageSize)
	}
	if sender != nil {
		if err := ValidateName(sender.Name); err != nil {
			return nil, fmt.Errorf("sender: %w", err)
		}
	}

	buf := make([]byte, size)
	byteOrder.PutUint64(buf, uint64(len(payload)))
	copy(buf[LengthPrefixSize:], payload)

	if sender != nil {
		block := buf[LengthPrefixSize+len(payload):]
		byteOrder.PutUint32(block, sender.ID)
		copy(block[4:], sender.Name)
	}
	return buf, nil
}

// Decode parses an envelope. capacity is the largest payload the caller is
// prepared to accept; a longer declared payload is a protocol violation and the
// message must be discarded.
func Decode(data []byte, capacity int) (Envelope, error) {
	if len(data) < LengthPrefixSize {
		return Envelope{}, fmt.Errorf("%w: %d bytes is shorter than the length prefix", errz.ErrMalformedEnvelope, len(data))
	}

	declared := byteOrder.Uint64(data)
	if declared > uint64(capacity) {
		return Envelope{}, fmt.Errorf("%w: payload of %d bytes exceeds capacity %d", errz.ErrMessageTooLong, declared, capacity)
	}
	length := int(declared)

	rest := len(data) - LengthPrefixSize
	if length > rest {
		return Envelope{}, fmt.Errorf("%w: declared %d payload bytes, have %d", errz.ErrMalformedEnvelope, length, rest)
	}

	env := Envelope{
		Payload:   data[LengthPrefixSize : LengthPrefixSize+length],
		Sender:    UnknownSender,
		Anonymous: true,
	}

	switch trailer := data[LengthPrefixSize+length:]; len(trailer) {
	case 0:
	case SenderBlockSize:
		name := trailer[4:]
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}
		env.Sender = Identity{
			ID:   byteOrder.Uint32(trailer),
			Name: string(name),
		}
		env.Anonymous = false
	default:
		return Envelope{}, fmt.Errorf("%w: trailing %d bytes", errz.ErrMalformedEnvelope, len(trailer))
	}

	return env, nil
}
