package device

import (
	"strconv"
	"sync"
)

// Memory is an in-process IO used by the simulator and by tests. Unknown
// endpoints read as zero.
type Memory struct {
	mu      sync.Mutex
	values  map[string]string
	history map[string][]string
}

var _ IO = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		values:  make(map[string]string),
		history: make(map[string][]string),
	}
}

func (m *Memory) Read(endpoint string) (int, error) {
	if err := validEndpoint(endpoint); err != nil {
		return 0, err
	}
	m.mu.Lock()
	raw := m.values[endpoint]
	m.mu.Unlock()
	return parseValue(endpoint, []byte(raw))
}

func (m *Memory) Write(endpoint, value string, mode WriteMode, _ bool) error {
	if err := validEndpoint(endpoint); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if mode == Queue {
		m.values[endpoint] += value
	} else {
		m.values[endpoint] = value
	}
	m.history[endpoint] = append(m.history[endpoint], value)
	return nil
}

// Set stores an integer value, as a sensor would report it.
func (m *Memory) Set(endpoint string, v int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[endpoint] = strconv.Itoa(v)
}

// Value returns the raw content of endpoint.
func (m *Memory) Value(endpoint string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[endpoint]
}

// History returns every value written to endpoint, oldest first.
func (m *Memory) History(endpoint string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history[endpoint]...)
}
