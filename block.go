package main

import (
	"math"

	"github.com/pkg/errors"
)

// QuantTable is an 8x8 quantization matrix in row-major order.
type QuantTable [blockLen]int32

// DefaultLumaTable and DefaultChromaTable are the standard JPEG tables.
var (
	DefaultLumaTable = QuantTable{
		16, 11, 10, 16, 24, 40, 51, 61,
		12, 12, 14, 19, 26, 58, 60, 55,
		14, 13, 16, 24, 40, 57, 69, 56,
		14, 17, 22, 29, 51, 87, 80, 62,
		18, 22, 37, 56, 68, 109, 103, 77,
		24, 35, 55, 64, 81, 104, 113, 92,
		49, 64, 78, 87, 103, 121, 120, 101,
		72, 92, 95, 98, 112, 100, 103, 99,
	}
	DefaultChromaTable = QuantTable{
		17, 18, 24, 47, 99, 99, 99, 99,
		18, 21, 26, 66, 99, 99, 99, 99,
		24, 26, 56, 99, 99, 99, 99, 99,
		47, 66, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
	}
)

// Scale divides every entry by factor, rounding half to even and clamping
// to a minimum of 1. Higher factors keep more detail.
func (q QuantTable) Scale(factor float64) (QuantTable, error) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return q, errors.Wrapf(ErrInvalidQuality, "factor %v", factor)
	}
	var out QuantTable
	for i, v := range q {
		s := math.RoundToEven(float64(v) / factor)
		if s < 1 {
			s = 1
		}
		if s > math.MaxInt32 {
			s = math.MaxInt32
		}
		out[i] = int32(s)
	}
	return out, nil
}

// Shape is a (rows, cols) pair.
type Shape struct {
	Rows, Cols int
}

// padded rounds both dimensions up to a multiple of the block side.
func (s Shape) padded() Shape {
	return Shape{Rows: ceilDiv(s.Rows, blockSide) * blockSide, Cols: ceilDiv(s.Cols, blockSide) * blockSide}
}

// blocks returns the number of 8x8 blocks of an already padded shape.
func (s Shape) blocks() int {
	return (s.Rows / blockSide) * (s.Cols / blockSide)
}

// quantizeBlock applies the forward DCT to a row-major block and
// quantizes the coefficients. This is the only lossy step of the codec.
func quantizeBlock(block *[blockLen]float64, q *QuantTable) [blockLen]int32 {
	forwardDCT(block)
	var out [blockLen]int32
	for i, c := range block {
		out[i] = int32(math.RoundToEven(c / float64(q[i])))
	}
	return out
}

// dequantizeBlock multiplies by the table and applies the inverse DCT.
func dequantizeBlock(coeffs *[blockLen]int32, q *QuantTable) [blockLen]float64 {
	var block [blockLen]float64
	for i, c := range coeffs {
		block[i] = float64(c) * float64(q[i])
	}
	inverseDCT(&block)
	return block
}

// transformPlane level-shifts p by -128, zero-pads it to whole blocks and
// returns every block transformed, quantized and zigzag-scanned, in
// raster block order.
func transformPlane(p *Plane, q *QuantTable, parallel bool) ([][blockLen]int32, Shape) {
	ps := p.Shape().padded()
	bcols := ps.Cols / blockSide
	out := make([][blockLen]int32, ps.blocks())

	forEachStripe(ps.Rows/blockSide, parallel, func(br0, br1 int) {
		for br := br0; br < br1; br++ {
			for bc := 0; bc < bcols; bc++ {
				var block [blockLen]float64
				for i := 0; i < blockSide; i++ {
					r := br*blockSide + i
					if r >= p.Rows {
						break
					}
					for j := 0; j < blockSide; j++ {
						c := bc*blockSide + j
						if c >= p.Cols {
							break
						}
						block[i*blockSide+j] = p.At(r, c) - 128
					}
				}
				quant := quantizeBlock(&block, q)
				out[br*bcols+bc] = zigzagScan(&quant)
			}
		}
	})
	return out, ps
}

// reconstructPlane is the inverse of transformPlane: it dequantizes each
// zigzag-ordered block, crops the padding away and undoes the level shift.
func reconstructPlane(blocks [][blockLen]int32, padded, orig Shape, q *QuantTable, parallel bool) *Plane {
	bcols := padded.Cols / blockSide
	out := newPlane(orig.Rows, orig.Cols)

	forEachStripe(padded.Rows/blockSide, parallel, func(br0, br1 int) {
		for br := br0; br < br1; br++ {
			for bc := 0; bc < bcols; bc++ {
				coeffs := unscanBlock(&blocks[br*bcols+bc])
				block := dequantizeBlock(&coeffs, q)
				for i := 0; i < blockSide; i++ {
					r := br*blockSide + i
					if r >= orig.Rows {
						break
					}
					for j := 0; j < blockSide; j++ {
						c := bc*blockSide + j
						if c >= orig.Cols {
							break
						}
						out.Set(r, c, block[i*blockSide+j]+128)
					}
				}
			}
		}
	})
	return out
}
