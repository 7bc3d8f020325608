package activity

import "sync"

// MemoryLocker locks the process's pages into RAM at most once.
type MemoryLocker struct {
	once sync.Once
	lock func() error
	err  error
}

// NewMemoryLocker returns a locker that calls lock on first use.
func NewMemoryLocker(lock func() error) *MemoryLocker {
	return &MemoryLocker{lock: lock}
}

// Lock calls the lock function the first time and returns its result on every
// call.
func (m *MemoryLocker) Lock() error {
	m.once.Do(func() {
		m.err = m.lock()
	})
	return m.err
}

var defaultLocker = NewMemoryLocker(lockAllMemory)

// LockMemory locks all current and future pages of the process so that real
// time activities never page fault. Only the first call does any work.
func LockMemory() error {
	return defaultLocker.Lock()
}
