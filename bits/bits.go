// Package bits holds the single-bit and bit-field helpers the drivers use on
// register values.
package bits

import "golang.org/x/exp/constraints"

// Set returns v with bit n set.
func Set[T constraints.Unsigned](v T, n uint) T {
	return v | (1 << n)
}

// Clear returns v with bit n cleared.
func Clear[T constraints.Unsigned](v T, n uint) T {
	return v &^ (1 << n)
}

// Toggle returns v with bit n inverted.
func Toggle[T constraints.Unsigned](v T, n uint) T {
	return v ^ (1 << n)
}

// IsSet reports whether bit n of v is set.
func IsSet[T constraints.Unsigned](v T, n uint) bool {
	return v&(1<<n) != 0
}

// IsClear reports whether bit n of v is clear.
func IsClear[T constraints.Unsigned](v T, n uint) bool {
	return v&(1<<n) == 0
}

// Field extracts the field of the given width starting at shift.
func Field[T constraints.Unsigned](v T, shift, width uint) T {
	return (v >> shift) & Mask[T](width)
}

// Insert replaces the field of the given width at shift with field. Bits of
// field above width are dropped so neighbouring fields are never touched.
func Insert[T constraints.Unsigned](v T, shift, width uint, field T) T {
	m := Mask[T](width) << shift
	return (v &^ m) | ((field << shift) & m)
}

// Mask returns a value with the low width bits set.
func Mask[T constraints.Unsigned](width uint) T {
	return (T(1) << width) - 1
}
