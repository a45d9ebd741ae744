//go:build haldebug

package debug

const Assertions = true
