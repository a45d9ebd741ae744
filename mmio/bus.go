// Package mmio provides access to memory-mapped peripheral registers.
//
// Drivers never dereference addresses themselves. They hold Register32
// handles bound to a Bus, so the same driver code runs against the real
// System Control Space on target, a mapped co-simulation window, or the
// in-process simulator used by the tests.
package mmio

import "omibyte.io/tm4c/bits"

// Bus performs 32-bit register accesses. Every call is one volatile access as
// observed by the peripheral, in program order.
type Bus interface {
	Load32(addr uintptr) uint32
	Store32(addr uintptr, value uint32)
}

// Register32 is a handle to one 32-bit register on a Bus.
type Register32 struct {
	bus  Bus
	addr uintptr
}

// Reg returns a handle to the register at addr.
func Reg(bus Bus, addr uintptr) Register32 {
	return Register32{bus: bus, addr: addr}
}

func (r Register32) Addr() uintptr {
	return r.addr
}

func (r Register32) Get() uint32 {
	return r.bus.Load32(r.addr)
}

func (r Register32) Set(value uint32) {
	r.bus.Store32(r.addr, value)
}

// Clear writes zero to the whole register.
func (r Register32) Clear() {
	r.bus.Store32(r.addr, 0)
}

// SetBits performs a read-modify-write that sets every bit in mask.
func (r Register32) SetBits(mask uint32) {
	r.Set(r.Get() | mask)
}

// ClearBits performs a read-modify-write that clears every bit in mask.
func (r Register32) ClearBits(mask uint32) {
	r.Set(r.Get() &^ mask)
}

// HasBits reports whether any bit in mask is set.
func (r Register32) HasBits(mask uint32) bool {
	return r.Get()&mask != 0
}

// SetBit performs a read-modify-write that sets bit n.
func (r Register32) SetBit(n uint) {
	r.Set(bits.Set(r.Get(), n))
}

// ClearBit performs a read-modify-write that clears bit n.
func (r Register32) ClearBit(n uint) {
	r.Set(bits.Clear(r.Get(), n))
}

// BitIsSet reports whether bit n is set.
func (r Register32) BitIsSet(n uint) bool {
	return bits.IsSet(r.Get(), n)
}

// Field reads the width-bit field at pos.
func (r Register32) Field(pos, width uint) uint32 {
	return bits.Field(r.Get(), pos, width)
}

// ReplaceField replaces the width-bit field at pos with value, leaving every
// other bit of the register as it was read.
func (r Register32) ReplaceField(pos, width uint, value uint32) {
	r.Set(bits.Insert(r.Get(), pos, width, value))
}
