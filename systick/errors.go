package systick

import "errors"

var (
	ErrReloadRange = errors.New("duration not representable by the 24-bit reload counter")
	ErrNoCallback  = errors.New("SysTick interrupt with no callback registered")
)
