package domain

import "math/bits"

// MulAmount returns a*b and false if the product does not fit in a uint64.
func MulAmount(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// AddAmount returns a+b and false on overflow.
func AddAmount(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// SubAmount returns a-b and false if b > a.
func SubAmount(a, b uint64) (uint64, bool) {
	diff, borrow := bits.Sub64(a, b, 0)
	return diff, borrow == 0
}
