package channel

import (
	"errors"
	"sync"
)

var errUnlinked = errors.New("queue unlinked")

// queue is the shared state behind one channel id.
type queue struct {
	id string

	mu      sync.Mutex
	buckets [numPriorities][][]byte
	count   int
	dead    bool

	// notEmpty carries at most one pending wake-up for the receiver.
	notEmpty chan struct{}
	// notFull is closed and replaced every time a slot frees up.
	notFull chan struct{}

	unlinked   chan struct{}
	unlinkOnce sync.Once

	// gone is closed once the channel is unlinked or its receiver closed.
	gone     chan struct{}
	goneOnce sync.Once
}

func newQueue(id string) *queue {
	return &queue{
		id:       id,
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}),
		unlinked: make(chan struct{}),
		gone:     make(chan struct{}),
	}
}

// push appends data unless the queue is full, in which case it returns the
// channel that will be closed when space frees up. It returns errUnlinked once
// the queue has been unlinked.
func (q *queue) push(data []byte, prio Priority) (<-chan struct{}, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.dead {
		return nil, errUnlinked
	}
	if q.count >= Capacity {
		return q.notFull, nil
	}

	q.buckets[prio] = append(q.buckets[prio], data)
	q.count++
	q.signal()
	return nil, nil
}

// pop removes the oldest message of the highest priority present.
func (q *queue) pop() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for p := numPriorities - 1; p >= 0; p-- {
		bucket := q.buckets[p]
		if len(bucket) == 0 {
			continue
		}
		data := bucket[0]
		bucket[0] = nil
		q.buckets[p] = bucket[1:]
		q.count--

		close(q.notFull)
		q.notFull = make(chan struct{})
		if q.count > 0 {
			q.signal()
		}
		return data, true
	}
	return nil, false
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// signal must be called with q.mu held.
func (q *queue) signal() {
	select {
	case q.notEmpty <- struct{}{}:
	default:
	}
}

// unlink discards queued messages and wakes every waiter. It returns the
// number of messages dropped.
func (q *queue) unlink() int {
	dropped := 0
	q.unlinkOnce.Do(func() {
		q.mu.Lock()
		q.dead = true
		dropped = q.count
		q.buckets = [numPriorities][][]byte{}
		q.count = 0
		q.mu.Unlock()
		close(q.unlinked)
		q.markGone()
	})
	return dropped
}

func (q *queue) markGone() {
	q.goneOnce.Do(func() { close(q.gone) })
}
