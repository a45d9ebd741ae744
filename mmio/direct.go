package mmio

import (
	"sync/atomic"
	"unsafe"
)

// Direct accesses physical addresses. It is only meaningful on the target,
// where the System Control Space is mapped at its architectural address.
var Direct Bus = direct{}

type direct struct{}

func (direct) Load32(addr uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

func (direct) Store32(addr uintptr, value uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(addr)), value)
}
