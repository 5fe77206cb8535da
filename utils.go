package main

import (
	"bytes"
	"image"
	"image/draw"
	"io"
	"runtime"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// ImageToNRGBA copies any image.Image into an *image.NRGBA with bounds
// starting at (0,0). Non-premultiplied storage keeps color samples intact
// for translucent pixels.
func ImageToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// FromPixels builds an image from interleaved 8-bit samples with 3 (RGB)
// or 4 (RGBA) channels. RGB input gets a fully opaque alpha channel.
func FromPixels(w, h, channels int, pix []uint8) (*image.NRGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "size %dx%d", w, h)
	}
	if channels != 3 && channels != 4 {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%d channels, want 3 or 4", channels)
	}
	if len(pix) != w*h*channels {
		return nil, errors.Wrapf(ErrInvalidDimensions, "%d samples for %dx%dx%d", len(pix), w, h, channels)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if channels == 4 {
		copy(dst.Pix, pix)
		return dst, nil
	}
	for i, j := 0, 0; i < len(pix); i, j = i+3, j+4 {
		dst.Pix[j+0] = pix[i+0]
		dst.Pix[j+1] = pix[i+1]
		dst.Pix[j+2] = pix[i+2]
		dst.Pix[j+3] = 255
	}
	return dst, nil
}

// forEachStripe splits [0,n) into contiguous stripes and runs fn on each,
// one goroutine per stripe when parallel is set.
func forEachStripe(n int, parallel bool, fn func(start, end int)) {
	workers := 1
	if parallel {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		if n > 0 {
			fn(0, n)
		}
		return
	}

	perWorker := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		s := i * perWorker
		if s >= n {
			break
		}
		e := s + perWorker
		if e > n {
			e = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(s, e)
	}
	wg.Wait()
}

// clampByte clamps v to [0,255] and truncates it.
func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

func EncodeZstd(w io.Writer, raw []byte) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(runtime.NumCPU()))
	if err != nil {
		return errors.WithStack(err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return errors.WithStack(err)
	}
	if err := enc.Close(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func DecodeZstd(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer dec.Close()

	plain, err := io.ReadAll(dec)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedBitstream, err.Error())
	}
	return plain, nil
}

// zstdFrame reports whether data starts with a zstd frame magic number.
func zstdFrame(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0x28, 0xb5, 0x2f, 0xfd})
}
