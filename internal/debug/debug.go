// Package debug implements the assertion policy shared by the drivers.
//
// Invalid driver input never reaches the hardware. What happens next depends
// on the caller: it is logged at debug level, and when strict checking is on
// (per driver, or for the whole binary with -tags haldebug) it also panics so
// tests can tell a rejected call from a valid no-op.
package debug

import (
	"context"
	"log/slog"
)

// Discard is the logger drivers use when none is configured.
var Discard = slog.New(slog.DiscardHandler)

// Reject reports err according to the assertion policy.
func Reject(log *slog.Logger, strict bool, err error) {
	if log == nil {
		log = Discard
	}
	log.LogAttrs(context.Background(), slog.LevelDebug, "rejected", slog.Any("err", err))
	if strict || Assertions {
		panic(err)
	}
}
