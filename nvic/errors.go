package nvic

import "errors"

var (
	ErrInvalidIRQ       = errors.New("interrupt number out of range")
	ErrInvalidPriority  = errors.New("priority out of range")
	ErrUnknownException = errors.New("unknown exception")
)
