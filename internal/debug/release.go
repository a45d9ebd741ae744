//go:build !haldebug

package debug

// Assertions is true when the binary is built with -tags haldebug.
const Assertions = false
