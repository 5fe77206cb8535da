// GPEG is a block-transform image codec. Images are converted to YCrCb
// with alpha, chroma is subsampled, every 8x8 block is transformed with a
// DCT and quantized, then zigzag-scanned, run/size coded and entropy coded
// with a Huffman table built for, and stored in, each image.

package main

import (
	"bytes"
	"image"
	"io"

	"github.com/pkg/errors"
)

// Options controls encoding. The decoder needs none of it: tables and
// subsampling factors travel in the stream.
type Options struct {
	LumaTable   QuantTable // used for Y and alpha
	ChromaTable QuantTable // used for Cr and Cb

	// Chroma decimation strides; 0 is treated as 1.
	VerticalSubsampling   int
	HorizontalSubsampling int

	// Quality divides both quantization tables. Higher is better quality,
	// around 100 the quantization is close to lossless.
	Quality float64
}

// DefaultOptions returns the standard JPEG tables with 4:2:0 subsampling
// and a quality factor of 1.
func DefaultOptions() *Options {
	return &Options{
		LumaTable:             DefaultLumaTable,
		ChromaTable:           DefaultChromaTable,
		VerticalSubsampling:   2,
		HorizontalSubsampling: 2,
		Quality:               1,
	}
}

// Stats describes one encode. Ratio is 1 - CompressedBits/OriginalBits
// where the original is counted as 32-bit RGBA.
type Stats struct {
	OriginalBits   int
	CompressedBits int
	Ratio          float64
}

// Encode compresses img into a bitstream. A nil opts means DefaultOptions.
func Encode(img image.Image, opts *Options) (*Bitstream, *Stats, error) {
	return encode(img, opts, true)
}

// Decode reconstructs the image held in bs.
func Decode(bs *Bitstream) (*image.NRGBA, error) {
	return decode(bs, true)
}

func encode(img image.Image, opts *Options, parallel bool) (*Bitstream, *Stats, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, nil, errors.Wrapf(ErrInvalidDimensions, "size %dx%d", b.Dx(), b.Dy())
	}
	ssv, err := subsamplingFactor(opts.VerticalSubsampling)
	if err != nil {
		return nil, nil, err
	}
	ssh, err := subsamplingFactor(opts.HorizontalSubsampling)
	if err != nil {
		return nil, nil, err
	}
	qy, err := opts.LumaTable.Scale(opts.Quality)
	if err != nil {
		return nil, nil, err
	}
	qc, err := opts.ChromaTable.Scale(opts.Quality)
	if err != nil {
		return nil, nil, err
	}

	ch := toYCrCbA(ImageToNRGBA(img), parallel)
	y, cr, cb, alpha, err := subsample(ssv, ssh, ch)
	if err != nil {
		return nil, nil, err
	}

	pl := &payload{
		ssv:     ssv,
		ssh:     ssh,
		shapes:  newShapes(y.Shape(), cr.Shape(), cb.Shape(), alpha.Shape()),
		lumaQ:   qy,
		chromaQ: qc,
	}
	pl.y, _ = transformPlane(y, &qy, parallel)
	pl.alpha, _ = transformPlane(alpha, &qy, parallel)
	pl.cr, _ = transformPlane(cr, &qc, parallel)
	pl.cb, _ = transformPlane(cb, &qc, parallel)

	bs, err := pl.marshal()
	if err != nil {
		return nil, nil, err
	}

	st := &Stats{
		OriginalBits:   b.Dx() * b.Dy() * 4 * 8,
		CompressedBits: bs.Len(),
	}
	st.Ratio = 1 - float64(st.CompressedBits)/float64(st.OriginalBits)
	return bs, st, nil
}

func decode(bs *Bitstream, parallel bool) (*image.NRGBA, error) {
	pl, err := unmarshalPayload(bs)
	if err != nil {
		return nil, err
	}
	s := &pl.shapes

	y := reconstructPlane(pl.y, s.Padded[chY], s.Original[chY], &pl.lumaQ, parallel)
	alpha := reconstructPlane(pl.alpha, s.Padded[chY], s.Original[chAlpha], &pl.lumaQ, parallel)
	cr := reconstructPlane(pl.cr, s.Padded[chCr], s.Original[chCr], &pl.chromaQ, parallel)
	cb := reconstructPlane(pl.cb, s.Padded[chCb], s.Original[chCb], &pl.chromaQ, parallel)

	return toNRGBA(upsample(y, cr, cb, alpha, pl.ssv, pl.ssh), parallel), nil
}

// Encoder produces persisted files. It holds configuration only, so one
// Encoder may be used from several goroutines.
type Encoder struct {
	Options Options

	// Parallel enables the striped color conversion and block transform.
	Parallel bool

	// Zstd wraps the file bytes in a zstd frame.
	Zstd bool
}

func NewEncoder() *Encoder {
	return &Encoder{Options: *DefaultOptions(), Parallel: true}
}

// Encode returns the file bytes for img together with encode statistics.
func (e *Encoder) Encode(img image.Image) ([]byte, *Stats, error) {
	bs, st, err := encode(img, &e.Options, e.Parallel)
	if err != nil {
		return nil, nil, err
	}
	data, err := MarshalFile(bs)
	if err != nil {
		return nil, nil, err
	}
	if !e.Zstd {
		return data, st, nil
	}
	var buf bytes.Buffer
	if err := EncodeZstd(&buf, data); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), st, nil
}

func (e *Encoder) EncodeTo(w io.Writer, img image.Image) (*Stats, error) {
	data, st, err := e.Encode(img)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.WithStack(err)
	}
	return st, nil
}

// Decoder reads persisted files, plain or zstd-wrapped.
type Decoder struct {
	// Parallel enables the striped inverse transform and color conversion.
	Parallel bool
}

func NewDecoder() *Decoder {
	return &Decoder{Parallel: true}
}

func (d *Decoder) Decode(data []byte) (*image.NRGBA, error) {
	bs, err := unwrapFile(data)
	if err != nil {
		return nil, err
	}
	return decode(bs, d.Parallel)
}

func (d *Decoder) DecodeFrom(r io.Reader) (*image.NRGBA, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return d.Decode(data)
}
