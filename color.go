package main

import "image"

// Plane is a row-major matrix of real-valued samples for one channel.
type Plane struct {
	Rows, Cols int
	Pix        []float64
}

func newPlane(rows, cols int) *Plane {
	return &Plane{Rows: rows, Cols: cols, Pix: make([]float64, rows*cols)}
}

func (p *Plane) At(r, c int) float64 { return p.Pix[r*p.Cols+c] }

func (p *Plane) Set(r, c int, v float64) { p.Pix[r*p.Cols+c] = v }

func (p *Plane) Shape() Shape { return Shape{Rows: p.Rows, Cols: p.Cols} }

// Channel indices of the internal 4-channel representation.
const (
	chY = iota
	chCr
	chCb
	chAlpha
)

// toYCrCbA converts an image into Y, Cr, Cb and alpha planes:
//
//	Y  = 0.299R + 0.587G + 0.114B
//	Cr = (R - Y) / 1.402
//	Cb = (B - Y) / 1.772
func toYCrCbA(src *image.NRGBA, parallel bool) [4]*Plane {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	var out [4]*Plane
	for i := range out {
		out[i] = newPlane(h, w)
	}
	yp, crp, cbp, ap := out[chY].Pix, out[chCr].Pix, out[chCb].Pix, out[chAlpha].Pix

	forEachStripe(h, parallel, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := y * src.Stride
			for x := 0; x < w; x++ {
				p := row + x*4
				r := float64(src.Pix[p+0])
				g := float64(src.Pix[p+1])
				b := float64(src.Pix[p+2])
				idx := y*w + x
				lum := 0.299*r + 0.587*g + 0.114*b
				yp[idx] = lum
				crp[idx] = (r - lum) / 1.402
				cbp[idx] = (b - lum) / 1.772
				ap[idx] = float64(src.Pix[p+3])
			}
		}
	})
	return out
}

// toNRGBA is the inverse of toYCrCbA. Every sample is clamped to [0,255]
// before truncation since upsampled chroma can reconstruct out of range.
func toNRGBA(ch [4]*Plane, parallel bool) *image.NRGBA {
	h, w := ch[chY].Rows, ch[chY].Cols
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	yp, crp, cbp, ap := ch[chY].Pix, ch[chCr].Pix, ch[chCb].Pix, ch[chAlpha].Pix

	forEachStripe(h, parallel, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := y * dst.Stride
			for x := 0; x < w; x++ {
				idx := y*w + x
				lum, cr, cb := yp[idx], crp[idx], cbp[idx]
				p := row + x*4
				dst.Pix[p+0] = clampByte(lum + 1.402*cr)
				dst.Pix[p+1] = clampByte(lum - (0.299*1.402/0.587)*cr - (0.114*1.772/0.587)*cb)
				dst.Pix[p+2] = clampByte(lum + 1.772*cb)
				dst.Pix[p+3] = clampByte(ap[idx])
			}
		}
	})
	return dst
}
