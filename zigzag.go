package main

import "github.com/pkg/errors"

const (
	blockSide = 8
	blockLen  = blockSide * blockSide
)

// zigzagOrder[i] is the row-major index of the i-th coefficient in
// zigzag order.
var zigzagOrder = [blockLen]int{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

type coefficient interface {
	~int32 | ~float64
}

// zigzagScan reorders a row-major 8x8 matrix into zigzag order.
func zigzagScan[T coefficient](m *[blockLen]T) [blockLen]T {
	var v [blockLen]T
	for i, idx := range zigzagOrder {
		v[i] = m[idx]
	}
	return v
}

// zigzagUnscan is the inverse of zigzagScan. The input must hold exactly
// 64 coefficients.
func zigzagUnscan[T coefficient](v []T) ([blockLen]T, error) {
	if len(v) != blockLen {
		return [blockLen]T{}, errors.Wrapf(ErrUnsupportedBlockSize, "zigzag input has %d coefficients, want %d", len(v), blockLen)
	}
	return unscanBlock((*[blockLen]T)(v)), nil
}

func unscanBlock[T coefficient](v *[blockLen]T) [blockLen]T {
	var m [blockLen]T
	for i, idx := range zigzagOrder {
		m[idx] = v[i]
	}
	return m
}
