//go:build !linux

package mmio

import "errors"

// Mapped register windows need mmap and are only built on linux.
type Mapped struct{}

func OpenMapped(path string, base uintptr, size int) (*Mapped, error) {
	return nil, errors.ErrUnsupported
}

func (m *Mapped) Load32(addr uintptr) uint32 {
	panic(errors.ErrUnsupported)
}

func (m *Mapped) Store32(addr uintptr, value uint32) {
	panic(errors.ErrUnsupported)
}

func (m *Mapped) Close() error {
	return nil
}
