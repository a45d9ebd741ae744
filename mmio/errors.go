package mmio

import "errors"

var (
	ErrOutOfWindow = errors.New("address outside mapped register window")
	ErrUnaligned   = errors.New("unaligned register access")
	ErrWindowSize  = errors.New("invalid register window size")
)
