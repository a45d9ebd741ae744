package svd

import "errors"

var (
	ErrBadInteger       = errors.New("malformed integer")
	ErrInvalidDevice    = errors.New("invalid device description")
	ErrRegisterMissing  = errors.New("register missing from device description")
	ErrRegisterMismatch = errors.New("register address mismatch")
	ErrTargetMismatch   = errors.New("device description disagrees with target")
)
