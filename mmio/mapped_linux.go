//go:build linux

package mmio

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Mapped is a register window backed by a shared mapping of a file or
// device, for example a co-simulator's shared memory file or /dev/mem.
// Address base of the window corresponds to offset zero of the mapping.
type Mapped struct {
	base uintptr
	mem  []byte
}

// OpenMapped maps size bytes of path, starting at file offset 0, as the
// register window starting at base. Regular files shorter than size are
// extended.
func OpenMapped(path string, base uintptr, size int) (*Mapped, error) {
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrWindowSize, size)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Mode().IsRegular() && info.Size() < int64(size) {
		if err := f.Truncate(int64(size)); err != nil {
			return nil, err
		}
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	return &Mapped{base: base, mem: mem}, nil
}

func (m *Mapped) word(addr uintptr) *uint32 {
	if addr%4 != 0 {
		panic(fmt.Errorf("%w: %#x", ErrUnaligned, addr))
	}
	if addr < m.base || addr-m.base > uintptr(len(m.mem)-4) {
		panic(fmt.Errorf("%w: %#x", ErrOutOfWindow, addr))
	}
	return (*uint32)(unsafe.Pointer(&m.mem[addr-m.base]))
}

func (m *Mapped) Load32(addr uintptr) uint32 {
	return atomic.LoadUint32(m.word(addr))
}

func (m *Mapped) Store32(addr uintptr, value uint32) {
	atomic.StoreUint32(m.word(addr), value)
}

// Close unmaps the window. The Mapped value must not be used afterwards.
func (m *Mapped) Close() error {
	if m.mem == nil {
		return nil
	}
	err := unix.Munmap(m.mem)
	m.mem = nil
	return err
}
