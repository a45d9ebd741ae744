package sim

import "errors"

var ErrNoClock = errors.New("simulated clock frequency not set")
