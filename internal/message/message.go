// Package message defines typed payloads carried inside envelopes. A payload is
// a one-byte type discriminant followed by the JSON body of the message, so a
// receiver can decode it into the concrete variant registered for that type.
package message

import (
	"fmt"
	"reflect"

	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"github.com/segmentio/encoding/json"
)

// Type discriminates message variants. Zero is reserved.
type Type uint8

// Message is implemented by every payload variant.
type Message interface {
	MessageType() Type
}

// Encode serializes msg with its type discriminant.
func Encode(msg Message) ([]byte, error) {
	if msg == nil {
		return nil, fmt.Errorf("%w: nil message", errz.ErrUnknownMessageType)
	}
	typ := msg.MessageType()
	if typ == 0 {
		return nil, fmt.Errorf("%w: %T uses reserved type 0", errz.ErrUnknownMessageType, msg)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", msg, err)
	}
	return append([]byte{byte(typ)}, body...), nil
}

// Catalog maps type discriminants to the variants a receiver understands.
type Catalog struct {
	types map[Type]reflect.Type
}

// NewCatalog registers the given prototypes. Prototypes may be values or
// pointers; decoded messages are always returned as values of the prototype's
// element type.
func NewCatalog(prototypes ...Message) (*Catalog, error) {
	c := &Catalog{types: make(map[Type]reflect.Type, len(prototypes))}
	for _, p := range prototypes {
		if err := c.Register(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustCatalog is NewCatalog for package-level declarations.
func MustCatalog(prototypes ...Message) *Catalog {
	c, err := NewCatalog(prototypes...)
	if err != nil {
		panic(err)
	}
	return c
}

// Register adds a prototype to the catalog.
func (c *Catalog) Register(prototype Message) error {
	if prototype == nil {
		return fmt.Errorf("%w: nil prototype", errz.ErrUnknownMessageType)
	}
	typ := prototype.MessageType()
	if typ == 0 {
		return fmt.Errorf("%w: %T uses reserved type 0", errz.ErrUnknownMessageType, prototype)
	}
	if existing, ok := c.types[typ]; ok {
		return fmt.Errorf("message type %d already registered for %s", typ, existing)
	}

	rt := reflect.TypeOf(prototype)
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	c.types[typ] = rt
	return nil
}

// Decode parses a payload produced by Encode.
func (c *Catalog) Decode(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", errz.ErrMalformedEnvelope)
	}

	typ := Type(data[0])
	rt, ok := c.types[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %d", errz.ErrUnknownMessageType, typ)
	}

	ptr := reflect.New(rt)
	if err := json.Unmarshal(data[1:], ptr.Interface()); err != nil {
		return nil, fmt.Errorf("%w: type %d: %v", errz.ErrMalformedEnvelope, typ, err)
	}

	msg, ok := ptr.Elem().Interface().(Message)
	if !ok {
		// value receiver not implemented, fall back to the pointer
		return ptr.Interface().(Message), nil
	}
	return msg, nil
}

// As extracts a concrete variant from a decoded message.
func As[T Message](msg Message) (T, bool) {
	v, ok := msg.(T)
	return v, ok
}
