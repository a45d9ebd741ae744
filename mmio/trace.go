package mmio

import (
	"fmt"
	"sync"
)

type Op uint8

const (
	OpLoad Op = iota
	OpStore
)

func (o Op) String() string {
	if o == OpStore {
		return "store"
	}
	return "load"
}

// Access is one recorded bus access.
type Access struct {
	Op    Op
	Addr  uintptr
	Value uint32
}

func (a Access) String() string {
	return fmt.Sprintf("%s %#08x %#08x", a.Op, a.Addr, a.Value)
}

// Trace forwards accesses to an underlying Bus and records them in order.
type Trace struct {
	Bus

	mu       sync.Mutex
	accesses []Access
}

func NewTrace(bus Bus) *Trace {
	return &Trace{Bus: bus}
}

func (t *Trace) Load32(addr uintptr) uint32 {
	v := t.Bus.Load32(addr)
	t.record(Access{Op: OpLoad, Addr: addr, Value: v})
	return v
}

func (t *Trace) Store32(addr uintptr, value uint32) {
	t.Bus.Store32(addr, value)
	t.record(Access{Op: OpStore, Addr: addr, Value: value})
}

func (t *Trace) record(a Access) {
	t.mu.Lock()
	t.accesses = append(t.accesses, a)
	t.mu.Unlock()
}

// Accesses returns a copy of everything recorded so far.
func (t *Trace) Accesses() []Access {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Access(nil), t.accesses...)
}

// Stores returns only the recorded stores.
func (t *Trace) Stores() []Access {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Access
	for _, a := range t.accesses {
		if a.Op == OpStore {
			out = append(out, a)
		}
	}
	return out
}

// Reset forgets every recorded access.
func (t *Trace) Reset() {
	t.mu.Lock()
	t.accesses = nil
	t.mu.Unlock()
}
