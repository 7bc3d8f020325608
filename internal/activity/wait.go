package activity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/envelope"
	"github.com/atlanticdynamic/coffeemaker/internal/errz"
)

// Forever makes a wait block until a source is ready or the activity stops.
const Forever time.Duration = -1

// Readiness describes what ended a Wait.
type Readiness struct {
	// Source is the ready source, or nil when the wait timed out.
	Source Source

	// N is the payload length copied into the caller's buffer when Source
	// is the inbox.
	N int

	// Sender identifies who sent the message. It is envelope.UnknownSender
	// when no message was read or the sender was anonymous.
	Sender envelope.Identity
}

// Inbox reports whether the wait ended because a message was read.
func (r Readiness) Inbox() bool {
	_, ok := r.Source.(*inboxSource)
	return ok
}

// TimedOut reports whether the wait ended without any source being ready.
func (r Readiness) TimedOut() bool {
	return r.Source == nil
}

type inboxSource struct{ a *Activity }

func (s *inboxSource) Ready() <-chan struct{} { return s.a.receiver.Ready() }
func (s *inboxSource) Gone() <-chan struct{}  { return s.a.receiver.Gone() }
func (s *inboxSource) String() string         { return s.a.receiver.String() }

// multiplexor returns the activity's multiplexor, creating it and registering
// the inbox on first use.
func (a *Activity) multiplexor() (*Multiplexor, error) {
	if a.mux != nil {
		return a.mux, nil
	}
	m := newMultiplexor()
	if a.receiver != nil {
		if err := m.Add(&inboxSource{a: a}); err != nil {
			return nil, err
		}
	}
	a.mux = m
	return m, nil
}

// AddSource registers an additional readiness source, typically a device, to
// be waited on alongside the inbox. Only the activity's own goroutine may call
// it.
func (a *Activity) AddSource(src Source) error {
	m, err := a.multiplexor()
	if err != nil {
		return err
	}
	return m.Add(src)
}

// Wait blocks until the inbox or a registered source is ready, or until
// timeout elapses. A ready inbox is read immediately: the payload is copied
// into buf and the sender is reported. A message larger than buf is consumed
// and reported as errz.ErrMessageTooLong. An inbox that was unlinked or
// recreated by another receiver fails with errz.ErrChannelClosed. When the
// activity is stopped the context's error is returned.
func (a *Activity) Wait(buf []byte, timeout time.Duration) (Readiness, error) {
	none := Readiness{Sender: envelope.UnknownSender}

	m, err := a.multiplexor()
	if err != nil {
		return none, err
	}
	if m.Len() == 0 {
		return none, fmt.Errorf("%w: %s has nothing to wait on", errz.ErrChannelUnavailable, a.Name())
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		remaining := Forever
		if timeout >= 0 {
			remaining = max(time.Until(deadline), 0)
		}

		src, err := m.Wait(a.ctx, remaining)
		if err != nil {
			return none, err
		}
		if src == nil {
			return none, nil
		}

		if _, ok := src.(*inboxSource); !ok {
			return Readiness{Source: src, Sender: envelope.UnknownSender}, nil
		}

		data, err := a.receiver.TryReceive(envelope.MaxMessageSize)
		if errors.Is(err, errz.ErrWouldBlock) {
			// readiness raced with another reader of the same name
			continue
		}
		if err != nil {
			return none, err
		}
		return a.deliver(src, data, buf)
	}
}

func (a *Activity) deliver(src Source, data, buf []byte) (Readiness, error) {
	env, err := envelope.Decode(data, len(buf))
	if err != nil {
		a.logger.Warn("Dropping unreadable message", "error", err)
		return Readiness{Source: src, Sender: envelope.UnknownSender}, err
	}
	n := copy(buf, env.Payload)
	return Readiness{Source: src, N: n, Sender: env.Sender}, nil
}

// WaitForEvent waits for a message and copies its payload into buf. A zero
// length with a nil error is ambiguous: the wait timed out, a registered
// non-inbox source became ready, or the message was empty. Activities that
// register sources with AddSource should call Wait instead.
func (a *Activity) WaitForEvent(buf []byte, timeout time.Duration) (int, error) {
	r, err := a.Wait(buf, timeout)
	return r.N, err
}

// WaitForEventFrom is WaitForEvent that also reports the sender.
func (a *Activity) WaitForEventFrom(buf []byte, timeout time.Duration) (int, envelope.Identity, error) {
	r, err := a.Wait(buf, timeout)
	return r.N, r.Sender, err
}

// Receive reads the next message from the inbox without consulting other
// sources. In blocking mode it waits until a message arrives or the activity
// stops; in non-blocking mode it returns errz.ErrWouldBlock when the inbox is
// empty.
func (a *Activity) Receive(buf []byte) (int, error) {
	n, _, err := a.ReceiveFrom(buf)
	return n, err
}

// ReceiveFrom is Receive that also reports the sender.
func (a *Activity) ReceiveFrom(buf []byte) (int, envelope.Identity, error) {
	if a.receiver == nil {
		return 0, envelope.UnknownSender, fmt.Errorf("%w: %s has no inbox", errz.ErrChannelUnavailable, a.Name())
	}
	data, err := a.receiver.Receive(a.ctx, envelope.MaxMessageSize)
	if err != nil {
		return 0, envelope.UnknownSender, err
	}
	r, err := a.deliver(&inboxSource{a: a}, data, buf)
	return r.N, r.Sender, err
}

// Sleep pauses the activity for d or until it is stopped, whichever comes
// first. It reports whether the full duration elapsed.
func (a *Activity) Sleep(d time.Duration) bool {
	return sleep(a.ctx, d)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
