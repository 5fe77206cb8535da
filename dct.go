package main

import "math"

// dctMatrix[8*u+x] = c(u)*cos((2*x+1)*u*pi/16) with c(0) = sqrt(1/8) and
// c(u) = sqrt(2/8) otherwise, i.e. the orthonormal DCT-II basis.
var dctMatrix = func() [64]float64 {
	var m [64]float64
	for u := 0; u < 8; u++ {
		c := 0.5
		if u == 0 {
			c = math.Sqrt(0.125)
		}
		for x := 0; x < 8; x++ {
			m[8*u+x] = c * math.Cos(float64(2*x+1)*float64(u)*math.Pi/16)
		}
	}
	return m
}()

func dct1d(in []float64, stride int, out []float64) {
	for u := 0; u < 8; u++ {
		var s float64
		for x := 0; x < 8; x++ {
			s += dctMatrix[8*u+x] * in[x*stride]
		}
		out[u*stride] = s
	}
}

func idct1d(in []float64, stride int, out []float64) {
	for x := 0; x < 8; x++ {
		var s float64
		for u := 0; u < 8; u++ {
			s += dctMatrix[8*u+x] * in[u*stride]
		}
		out[x*stride] = s
	}
}

func transformBlock(block *[64]float64, f func(in []float64, stride int, out []float64)) {
	var tmp [64]float64
	for x := 0; x < 8; x++ {
		f(block[x:], 8, tmp[x:])
	}
	for y := 0; y < 8; y++ {
		f(tmp[8*y:], 1, block[8*y:])
	}
}

// forwardDCT replaces a row-major 8x8 block with its 2D DCT-II.
func forwardDCT(block *[64]float64) { transformBlock(block, dct1d) }

// inverseDCT undoes forwardDCT.
func inverseDCT(block *[64]float64) { transformBlock(block, idct1d) }
