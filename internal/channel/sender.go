package channel

import (
	"context"
	"fmt"
	"slices"

	"github.com/atlanticdynamic/coffeemaker/internal/envelope"
	"github.com/atlanticdynamic/coffeemaker/internal/errz"
)

// Sender is a writing handle of a channel.
type Sender struct {
	q    *queue
	name string
	mode Mode
}

// Name returns the name of the receiving activity.
func (s *Sender) Name() string { return s.name }

// Send enqueues a copy of data. On a full channel a blocking sender waits for
// space or ctx; a non-blocking sender fails with errz.ErrQueueFull.
func (s *Sender) Send(ctx context.Context, data []byte, prio Priority) error {
	if len(data) > envelope.MaxMessageSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", errz.ErrPayloadTooLarge, len(data), envelope.MaxMessageSize)
	}
	if int(prio) >= numPriorities {
		return fmt.Errorf("invalid priority %d", prio)
	}

	msg := slices.Clone(data)
	if msg == nil {
		msg = []byte{}
	}

	for {
		wait, err := s.q.push(msg, prio)
		if err != nil {
			return fmt.Errorf("%w: %s", errz.ErrChannelUnavailable, s.q.id)
		}
		if wait == nil {
			return nil
		}
		if s.mode == NonBlocking {
			return fmt.Errorf("%w: %s", errz.ErrQueueFull, s.q.id)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.q.unlinked:
		case <-wait:
		}
	}
}
