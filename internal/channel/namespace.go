package channel

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/atlanticdynamic/coffeemaker/internal/envelope"
	"github.com/atlanticdynamic/coffeemaker/internal/errz"
)

// Mode selects blocking or non-blocking behavior for a channel handle.
type Mode int

const (
	Blocking Mode = iota
	NonBlocking
)

func (m Mode) String() string {
	if m == NonBlocking {
		return "non-blocking"
	}
	return "blocking"
}

// Priority orders messages within a channel.
type Priority uint8

const (
	Low Priority = iota
	Medium
	High
)

const numPriorities = int(High) + 1

func (p Priority) String() string {
	switch p {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return fmt.Sprintf("priority(%d)", uint8(p))
	}
}

// ErrReplaced reports that a channel was recreated by a newer receiver.
var ErrReplaced = errors.New("channel was replaced")

// Capacity is the number of messages a channel holds before senders block.
const Capacity = 10

// ID derives the system-wide channel id from an activity name.
func ID(name string) (string, error) {
	if err := envelope.ValidateName(name); err != nil {
		return "", err
	}
	return "/" + name, nil
}

// Option configures a Namespace.
type Option func(*Namespace)

// WithLogHandler sets the log handler used by the namespace.
func WithLogHandler(handler slog.Handler) Option {
	return func(ns *Namespace) {
		if handler != nil {
			ns.logger = slog.New(handler).WithGroup("channel.Namespace")
		}
	}
}

// WithLogger sets the logger used by the namespace.
func WithLogger(logger *slog.Logger) Option {
	return func(ns *Namespace) {
		if logger != nil {
			ns.logger = logger
		}
	}
}

// Namespace holds the channels visible to a process.
type Namespace struct {
	mu     sync.Mutex
	queues map[string]*queue
	logger *slog.Logger
}

// NewNamespace creates an empty namespace. Tests use private namespaces; the
// daemon uses Default.
func NewNamespace(opts ...Option) *Namespace {
	ns := &Namespace{
		queues: make(map[string]*queue),
		logger: slog.Default().WithGroup("channel.Namespace"),
	}
	for _, opt := range opts {
		opt(ns)
	}
	return ns
}

var defaultNamespace = NewNamespace()

// Default returns the process-wide namespace.
func Default() *Namespace {
	return defaultNamespace
}

// OpenReceiver binds the single reader of the named channel. Any existing
// channel with the same name is unlinked first: its receiver becomes unusable
// and queued messages are discarded.
func (ns *Namespace) OpenReceiver(name string, mode Mode) (*Receiver, error) {
	id, err := ID(name)
	if err != nil {
		return nil, err
	}

	ns.mu.Lock()
	stale := ns.queues[id]
	q := newQueue(id)
	ns.queues[id] = q
	ns.mu.Unlock()

	if stale != nil {
		dropped := stale.unlink()
		ns.logger.Debug("Recreated stale channel", "id", id, "dropped", dropped)
	}

	return &Receiver{
		ns:     ns,
		q:      q,
		name:   name,
		mode:   mode,
		closed: make(chan struct{}),
	}, nil
}

// OpenSender opens the named channel for writing. It fails with
// errz.ErrChannelUnavailable when no receiver is bound to the name.
func (ns *Namespace) OpenSender(name string, mode Mode) (*Sender, error) {
	id, err := ID(name)
	if err != nil {
		return nil, err
	}

	ns.mu.Lock()
	q := ns.queues[id]
	ns.mu.Unlock()

	if q == nil {
		return nil, fmt.Errorf("%w: %s", errz.ErrChannelUnavailable, id)
	}
	return &Sender{q: q, name: name, mode: mode}, nil
}

// Unlink removes the named channel. Its receiver becomes unusable and blocked
// senders fail with errz.ErrChannelUnavailable.
func (ns *Namespace) Unlink(name string) error {
	id, err := ID(name)
	if err != nil {
		return err
	}

	ns.mu.Lock()
	q := ns.queues[id]
	delete(ns.queues, id)
	ns.mu.Unlock()

	if q == nil {
		return fmt.Errorf("%w: %s", errz.ErrChannelUnavailable, id)
	}
	q.unlink()
	return nil
}

// unlinkQueue removes q only if it is still the channel registered under its id.
func (ns *Namespace) unlinkQueue(q *queue) error {
	ns.mu.Lock()
	current := ns.queues[q.id] == q
	if current {
		delete(ns.queues, q.id)
	}
	ns.mu.Unlock()

	if !current {
		return fmt.Errorf("%w: %w: %s", errz.ErrChannelUnavailable, ErrReplaced, q.id)
	}
	q.unlink()
	return nil
}

// Names returns the ids of all channels, sorted.
func (ns *Namespace) Names() []string {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	ids := make([]string, 0, len(ns.queues))
	for id := range ns.queues {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
