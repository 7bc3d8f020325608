package device

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/errz"
	"golang.org/x/sys/unix"
)

// pollInterval bounds how long the poller goes without checking for Close.
const pollInterval = 100 * time.Millisecond

// EventDevice watches a character device that becomes readable when an event
// occurs. A background goroutine polls the descriptor; after each readiness
// signal it waits for ReadEvent before polling again.
type EventDevice struct {
	path   string
	fd     int
	logger *slog.Logger

	ready    chan struct{}
	consumed chan struct{}
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

var _ EventSource = (*EventDevice)(nil)

// OpenEventDevice opens path non-blocking and starts polling it.
func OpenEventDevice(path string, logger *slog.Logger) (*EventDevice, error) {
	if logger == nil {
		logger = slog.Default().WithGroup("device.EventDevice")
	}
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", errz.ErrIOFailure, path, err)
	}

	d := &EventDevice{
		path:     path,
		fd:       fd,
		logger:   logger.With("device", path),
		ready:    make(chan struct{}, 1),
		consumed: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	d.wg.Add(1)
	go d.poll()
	return d, nil
}

func (d *EventDevice) poll() {
	defer d.wg.Done()
	fds := []unix.PollFd{{Fd: int32(d.fd), Events: unix.POLLIN}}
	for {
		select {
		case <-d.done:
			return
		default:
		}

		n, err := unix.Poll(fds, int(pollInterval/time.Millisecond))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			d.logger.Error("Polling failed", "error", err)
			return
		}
		if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		select {
		case d.ready <- struct{}{}:
		default:
		}
		select {
		case <-d.consumed:
		case <-d.done:
			return
		}
	}
}

func (d *EventDevice) Ready() <-chan struct{} { return d.ready }

// ReadEvent reads the pending event value.
func (d *EventDevice) ReadEvent() (int, error) {
	defer func() {
		select {
		case d.consumed <- struct{}{}:
		default:
		}
	}()

	buf := make([]byte, maxValueSize)
	n, err := unix.Read(d.fd, buf)
	if err != nil {
		return 0, wrapErrno("read", d.path, err)
	}
	// Regular files are always readable; rewind so the next event reads the
	// current content again.
	if _, err := unix.Seek(d.fd, 0, 0); err != nil && !errors.Is(err, unix.ESPIPE) {
		d.logger.Debug("Rewind failed", "error", err)
	}
	return parseValue(d.path, buf[:n])
}

// Close stops polling and closes the descriptor.
func (d *EventDevice) Close() error {
	var err error
	d.once.Do(func() {
		close(d.done)
		d.wg.Wait()
		if cerr := unix.Close(d.fd); cerr != nil {
			err = fmt.Errorf("%w: close %s: %w", errz.ErrIOFailure, d.path, cerr)
		}
	})
	return err
}

func (d *EventDevice) String() string { return d.path }

// MemoryEvents is an EventSource driven by Trigger.
type MemoryEvents struct {
	name   string
	mu     sync.Mutex
	queue  []int
	ready  chan struct{}
	closed bool
}

var _ EventSource = (*MemoryEvents)(nil)

func NewMemoryEvents(name string) *MemoryEvents {
	return &MemoryEvents{name: name, ready: make(chan struct{}, 1)}
}

// Trigger queues an event value and signals readiness.
func (m *MemoryEvents) Trigger(v int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.queue = append(m.queue, v)
	m.signal()
}

func (m *MemoryEvents) signal() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

func (m *MemoryEvents) Ready() <-chan struct{} { return m.ready }

func (m *MemoryEvents) ReadEvent() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, errz.ErrChannelClosed
	}
	if len(m.queue) == 0 {
		return 0, errz.ErrWouldBlock
	}
	v := m.queue[0]
	m.queue = m.queue[1:]
	if len(m.queue) > 0 {
		m.signal()
	}
	return v, nil
}

func (m *MemoryEvents) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.queue = nil
	return nil
}

func (m *MemoryEvents) String() string { return m.name }
