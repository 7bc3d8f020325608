package channel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atlanticdynamic/coffeemaker/internal/errz"
)

// Receiver is the single reading handle of a channel.
type Receiver struct {
	ns   *Namespace
	q    *queue
	name string
	mode Mode

	closed    chan struct{}
	closeOnce sync.Once
}

// Name returns the activity name the channel was opened for.
func (r *Receiver) Name() string { return r.name }

// ID returns the system-wide channel id.
func (r *Receiver) ID() string { return r.q.id }

// Mode returns the receive mode.
func (r *Receiver) Mode() Mode { return r.mode }

// Len returns the number of queued messages.
func (r *Receiver) Len() int { return r.q.len() }

// Ready delivers a value when a message may be available. Wake-ups can be
// spurious; callers follow up with TryReceive.
func (r *Receiver) Ready() <-chan struct{} { return r.q.notEmpty }

// Gone is closed once the handle can no longer deliver messages: the receiver
// was closed, or the channel was unlinked or recreated by another receiver.
func (r *Receiver) Gone() <-chan struct{} { return r.q.gone }

func (r *Receiver) String() string { return r.q.id }

func (r *Receiver) usable() error {
	select {
	case <-r.closed:
		return fmt.Errorf("%w: %s", errz.ErrChannelClosed, r.q.id)
	case <-r.q.unlinked:
		return fmt.Errorf("%w: %s was unlinked", errz.ErrChannelClosed, r.q.id)
	default:
		return nil
	}
}

// TryReceive returns the next message without waiting. It fails with
// errz.ErrWouldBlock when the channel is empty. A message longer than capacity
// is discarded and reported as errz.ErrMessageTooLong.
func (r *Receiver) TryReceive(capacity int) ([]byte, error) {
	if err := r.usable(); err != nil {
		return nil, err
	}

	data, ok := r.q.pop()
	if !ok {
		return nil, errz.ErrWouldBlock
	}
	if len(data) > capacity {
		return nil, fmt.Errorf("%w: %d bytes exceeds capacity %d", errz.ErrMessageTooLong, len(data), capacity)
	}
	return data, nil
}

// Receive returns the next message. In blocking mode it waits until a message
// arrives, the channel is closed or unlinked, or ctx is done. In non-blocking
// mode it behaves like TryReceive.
func (r *Receiver) Receive(ctx context.Context, capacity int) ([]byte, error) {
	for {
		data, err := r.TryReceive(capacity)
		if !errors.Is(err, errz.ErrWouldBlock) || r.mode == NonBlocking {
			return data, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-r.closed:
		case <-r.q.unlinked:
		case <-r.q.notEmpty:
		}
	}
}

// Close releases the handle. The channel stays registered until unlinked.
func (r *Receiver) Close() error {
	select {
	case <-r.closed:
		return fmt.Errorf("%w: %s", errz.ErrChannelClosed, r.q.id)
	default:
	}
	r.closeOnce.Do(func() {
		close(r.closed)
		r.q.markGone()
	})
	return nil
}

// Unlink removes the channel from its namespace, unless another receiver has
// already recreated it, in which case the error wraps ErrReplaced.
func (r *Receiver) Unlink() error {
	return r.ns.unlinkQueue(r.q)
}
