package mmio

import "sync"

// Memory is a plain RAM-backed Bus. Unlike real peripherals it has no side
// effects: every register simply holds the last value stored.
type Memory struct {
	mu    sync.Mutex
	words map[uintptr]uint32
}

func NewMemory() *Memory {
	return &Memory{words: make(map[uintptr]uint32)}
}

func (m *Memory) Load32(addr uintptr) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.words[addr]
}

func (m *Memory) Store32(addr uintptr, value uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value == 0 {
		delete(m.words, addr)
		return
	}
	m.words[addr] = value
}

// Snapshot returns a copy of every non-zero word.
func (m *Memory) Snapshot() map[uintptr]uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uintptr]uint32, len(m.words))
	for k, v := range m.words {
		out[k] = v
	}
	return out
}
