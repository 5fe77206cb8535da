package main

import "github.com/pkg/errors"

// maxSubsampling is the largest factor the 8-bit ssv/ssh fields hold.
const maxSubsampling = 255

// subsamplingFactor validates a factor and coerces zero to one.
func subsamplingFactor(f int) (int, error) {
	if f < 0 || f > maxSubsampling {
		return 0, errors.Wrapf(ErrInvalidSubsamplingFactor, "factor %d outside [0,%d]", f, maxSubsampling)
	}
	if f == 0 {
		return 1, nil
	}
	return f, nil
}

// subsample decimates the chroma planes by keeping every v-th row and
// every h-th column. Luma and alpha pass through untouched.
func subsample(v, h int, ch [4]*Plane) (y, cr, cb, alpha *Plane, err error) {
	if v, err = subsamplingFactor(v); err != nil {
		return nil, nil, nil, nil, err
	}
	if h, err = subsamplingFactor(h); err != nil {
		return nil, nil, nil, nil, err
	}
	return ch[chY], decimate(ch[chCr], v, h), decimate(ch[chCb], v, h), ch[chAlpha], nil
}

func decimate(p *Plane, v, h int) *Plane {
	if v == 1 && h == 1 {
		return p
	}
	out := newPlane(ceilDiv(p.Rows, v), ceilDiv(p.Cols, h))
	for r := 0; r < out.Rows; r++ {
		for c := 0; c < out.Cols; c++ {
			out.Set(r, c, p.At(r*v, c*h))
		}
	}
	return out
}

// upsample replicates each chroma sample over the v x h cell it stands
// for, producing planes the size of y.
func upsample(y, cr, cb, alpha *Plane, v, h int) [4]*Plane {
	if v < 1 {
		v = 1
	}
	if h < 1 {
		h = 1
	}
	return [4]*Plane{chY: y, chCr: replicate(cr, y.Rows, y.Cols, v, h), chCb: replicate(cb, y.Rows, y.Cols, v, h), chAlpha: alpha}
}

func replicate(p *Plane, rows, cols, v, h int) *Plane {
	if v == 1 && h == 1 && p.Rows == rows && p.Cols == cols {
		return p
	}
	out := newPlane(rows, cols)
	for r := 0; r < rows; r++ {
		src := (r / v) * p.Cols
		for c := 0; c < cols; c++ {
			out.Pix[r*cols+c] = p.Pix[src+c/h]
		}
	}
	return out
}

// subsampledShape is the chroma shape produced by subsample for a
// rows x cols image.
func subsampledShape(rows, cols, v, h int) Shape {
	if v < 1 {
		v = 1
	}
	if h < 1 {
		h = 1
	}
	return Shape{Rows: ceilDiv(rows, v), Cols: ceilDiv(cols, h)}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
