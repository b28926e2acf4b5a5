package sink

import (
	"sync"

	"github.com/san-kum/ecosim/internal/world"
)

// Memory keeps records in order. Safe to read while a run is writing.
type Memory struct {
	mu      sync.Mutex
	records []world.Record
}

func NewMemory() *Memory {
	return &Memory{records: make([]world.Record, 0, 128)}
}

func (m *Memory) Write(rec world.Record) error {
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Records() []world.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]world.Record, len(m.records))
	copy(out, m.records)
	return out
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
