package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/envelope"
	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"github.com/atlanticdynamic/coffeemaker/internal/message"
)

// Send delivers payload to the activity named by to, stamped with this
// activity's identity. It blocks while the receiver's inbox is full unless ctx
// is done first.
func (a *Activity) Send(ctx context.Context, to Descriptor, payload []byte, prio channel.Priority) error {
	from := a.descriptor.Identity()
	return send(ctx, a.ns, a.logger, &from, to, payload, prio)
}

// Send delivers an anonymous message. Receivers that ask for the sender are
// given envelope.UnknownSender. A nil namespace means channel.Default().
func Send(ctx context.Context, ns *channel.Namespace, to Descriptor, payload []byte, prio channel.Priority) error {
	if ns == nil {
		ns = channel.Default()
	}
	return send(ctx, ns, slog.Default().WithGroup("activity.Send"), nil, to, payload, prio)
}

func send(
	ctx context.Context,
	ns *channel.Namespace,
	logger *slog.Logger,
	from *envelope.Identity,
	to Descriptor,
	payload []byte,
	prio channel.Priority,
) error {
	if to.Is(Null) {
		return nil
	}

	data, err := envelope.Encode(payload, from)
	if err != nil {
		return err
	}

	s, err := ns.OpenSender(to.Name, channel.Blocking)
	if err != nil {
		if errors.Is(err, errz.ErrChannelUnavailable) {
			logger.Warn("Receiver is not running", "to", to.Name)
		}
		return fmt.Errorf("send to %s: %w", to.Name, err)
	}
	if err := s.Send(ctx, data, prio); err != nil {
		return fmt.Errorf("send to %s: %w", to.Name, err)
	}
	return nil
}

// SendMessage encodes msg and sends it from a.
func SendMessage[T message.Message](ctx context.Context, a *Activity, to Descriptor, msg T, prio channel.Priority) error {
	data, err := message.Encode(msg)
	if err != nil {
		return err
	}
	return a.Send(ctx, to, data, prio)
}

// SendAnonymous encodes msg and sends it without a sender identity.
func SendAnonymous[T message.Message](ctx context.Context, ns *channel.Namespace, to Descriptor, msg T, prio channel.Priority) error {
	data, err := message.Encode(msg)
	if err != nil {
		return err
	}
	return Send(ctx, ns, to, data, prio)
}

// Delivery is a decoded message together with its sender.
type Delivery struct {
	Message message.Message
	Sender  envelope.Identity
	// Source is set instead of Message when a non-inbox source became ready.
	Source Source
}

// WaitForMessage waits like Wait and decodes an inbox message with catalog.
// On timeout the returned Delivery has neither Message nor Source set.
func WaitForMessage(a *Activity, catalog *message.Catalog, timeout time.Duration) (Delivery, error) {
	buf := make([]byte, envelope.MaxPayloadSize)
	r, err := a.Wait(buf, timeout)
	if err != nil {
		return Delivery{Sender: r.Sender}, err
	}
	if !r.Inbox() {
		return Delivery{Sender: r.Sender, Source: r.Source}, nil
	}
	msg, err := catalog.Decode(buf[:r.N])
	if err != nil {
		a.logger.Warn("Dropping undecodable message", "sender", r.Sender.Name, "error", err)
		return Delivery{Sender: r.Sender}, err
	}
	return Delivery{Message: msg, Sender: r.Sender}, nil
}

// ReceiveMessage reads the next inbox message and decodes it with catalog.
func ReceiveMessage(a *Activity, catalog *message.Catalog) (Delivery, error) {
	buf := make([]byte, envelope.MaxPayloadSize)
	n, sender, err := a.ReceiveFrom(buf)
	if err != nil {
		return Delivery{Sender: sender}, err
	}
	msg, err := catalog.Decode(buf[:n])
	if err != nil {
		return Delivery{Sender: sender}, err
	}
	return Delivery{Message: msg, Sender: sender}, nil
}
