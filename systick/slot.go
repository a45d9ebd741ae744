package systick

import "sync/atomic"

// Slot holds the single callback invoked from the SysTick interrupt.
//
// Register publishes the callback with one atomic pointer store and Fire reads
// it with one atomic load, so the interrupt observes either the previous or the
// new callback, never a torn value. A callback stored before the interrupt is
// enabled is guaranteed to be visible to it.
type Slot struct {
	fn       atomic.Pointer[func()]
	spurious atomic.Uint64
}

// Register replaces the callback. A nil fn empties the slot.
func (s *Slot) Register(fn func()) {
	if fn == nil {
		s.fn.Store(nil)
		return
	}
	s.fn.Store(&fn)
}

// Registered reports whether a callback is present.
func (s *Slot) Registered() bool {
	return s.fn.Load() != nil
}

// Fire invokes the callback once. An empty slot is counted as a spurious
// interrupt and Fire returns false.
func (s *Slot) Fire() bool {
	fn := s.fn.Load()
	if fn == nil {
		s.spurious.Add(1)
		return false
	}
	(*fn)()
	return true
}

// Spurious returns the number of interrupts that found the slot empty.
func (s *Slot) Spurious() uint64 {
	return s.spurious.Load()
}
