package activity

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/errz"
)

// Source is anything an activity can wait on: its inbox or a device that
// signals readiness through a channel.
type Source interface {
	Ready() <-chan struct{}
	String() string
}

// closingSource is implemented by sources that can stop working, like an
// inbox whose channel was unlinked. A gone source is reported as ready so the
// follow-up read surfaces the failure.
type closingSource interface {
	Gone() <-chan struct{}
}

// Multiplexor waits for the first of several sources to become ready. Each
// activity creates one lazily, on its first wait, and reuses it afterwards.
type Multiplexor struct {
	mu      sync.Mutex
	sources []Source
	closed  bool
}

func newMultiplexor() *Multiplexor {
	return &Multiplexor{}
}

// Add registers src. Adding the same source twice is a no-op.
func (m *Multiplexor) Add(src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("%w: multiplexor closed", errz.ErrIOFailure)
	}
	for _, s := range m.sources {
		if s == src {
			return nil
		}
	}
	m.sources = append(m.sources, src)
	return nil
}

// Len returns the number of registered sources.
func (m *Multiplexor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// Wait blocks until a source is ready, the timeout elapses or ctx is done. A
// negative timeout waits forever and a zero timeout only polls. On timeout it
// returns a nil source and a nil error.
func (m *Multiplexor) Wait(ctx context.Context, timeout time.Duration) (Source, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: multiplexor closed", errz.ErrIOFailure)
	}
	sources := append([]Source(nil), m.sources...)
	m.mu.Unlock()

	const (
		caseDone = iota
		caseTimer
		firstSource
	)
	cases := make([]reflect.SelectCase, firstSource, firstSource+2*len(sources))
	cases[caseDone] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())}
	cases[caseTimer] = reflect.SelectCase{Dir: reflect.SelectRecv}
	if timeout >= 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		cases[caseTimer].Chan = reflect.ValueOf(timer.C)
	}
	// owners maps each source case back to its index in sources.
	owners := make([]int, 0, 2*len(sources))
	for i, s := range sources {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(s.Ready())})
		owners = append(owners, i)
		if c, ok := s.(closingSource); ok {
			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(c.Gone())})
			owners = append(owners, i)
		}
	}

	// Sources are checked before the timer so a zero timeout still reports
	// readiness that is already pending.
	if chosen, ok := pollSources(cases[firstSource:]); ok {
		return sources[owners[chosen]], nil
	}

	chosen, _, _ := reflect.Select(cases)
	switch chosen {
	case caseDone:
		return nil, ctx.Err()
	case caseTimer:
		return nil, nil
	default:
		return sources[owners[chosen-firstSource]], nil
	}
}

func pollSources(cases []reflect.SelectCase) (int, bool) {
	if len(cases) == 0 {
		return 0, false
	}
	polled := make([]reflect.SelectCase, len(cases), len(cases)+1)
	copy(polled, cases)
	polled = append(polled, reflect.SelectCase{Dir: reflect.SelectDefault})
	chosen, _, _ := reflect.Select(polled)
	if chosen == len(cases) {
		return 0, false
	}
	return chosen, true
}

// Close releases the multiplexor. Further waits fail.
func (m *Multiplexor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sources = nil
	return nil
}
