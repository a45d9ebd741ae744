package scenario

import "errors"

var (
	ErrUnknownOp    = errors.New("unknown operation")
	ErrMissingField = errors.New("missing field")
	ErrNoSimulator  = errors.New("operation needs the simulator")
	ErrRejected     = errors.New("driver rejected input")
)
