package main

import "github.com/pkg/errors"

// endMarker terminates the shapes and Huffman table sections.
const endMarker = 0xffff

const (
	shapesOriginal = "original"
	shapesPadded   = "padded"
)

// Shapes is the channel geometry carried in the stream. Original holds
// Y, Cr, Cb and alpha; Padded holds Y (shared with alpha), Cr and Cb.
type Shapes struct {
	Original [4]Shape
	Padded   [3]Shape
}

func newShapes(y, cr, cb, alpha Shape) Shapes {
	return Shapes{
		Original: [4]Shape{chY: y, chCr: cr, chCb: cb, chAlpha: alpha},
		Padded:   [3]Shape{chY: y.padded(), chCr: cr.padded(), chCb: cb.padded()},
	}
}

// validate checks the shapes against each other and against the
// subsampling factors the stream was written with.
func (s *Shapes) validate(ssv, ssh int) error {
	for i, o := range s.Original {
		if o.Rows <= 0 || o.Cols <= 0 {
			return malformed("original shape %d is %dx%d", i, o.Rows, o.Cols)
		}
	}
	y := s.Original[chY]
	if s.Original[chAlpha] != y {
		return malformed("alpha shape %v differs from luma %v", s.Original[chAlpha], y)
	}
	if s.Original[chCr] != s.Original[chCb] {
		return malformed("chroma shapes %v and %v differ", s.Original[chCr], s.Original[chCb])
	}
	if want := subsampledShape(y.Rows, y.Cols, ssv, ssh); s.Original[chCr] != want {
		return malformed("chroma shape %v, want %v for %dx%d subsampling", s.Original[chCr], want, ssv, ssh)
	}
	for i, p := range s.Padded {
		o := s.Original[i]
		if p.Rows < o.Rows || p.Cols < o.Cols || p.Rows%blockSide != 0 || p.Cols%blockSide != 0 {
			return malformed("padded shape %v does not cover %v in whole blocks", p, o)
		}
		if p != o.padded() {
			return malformed("padded shape %v, want %v", p, o.padded())
		}
	}
	return nil
}

func writeShapes(bw *BitWriter, s *Shapes) {
	writeKey := func(key string, shapes []Shape) {
		bw.WriteBits(uint64(len(key)), 16)
		for i := 0; i < len(key); i++ {
			_ = bw.WriteByte(key[i])
		}
		bw.WriteBits(uint64(len(shapes)), 8)
		for _, sh := range shapes {
			bw.WriteBits(uint64(sh.Rows), 32)
			bw.WriteBits(uint64(sh.Cols), 32)
		}
	}
	writeKey(shapesOriginal, s.Original[:])
	writeKey(shapesPadded, s.Padded[:])
	bw.WriteBits(endMarker, 16)
}

func readShapes(br *BitReader) (*Shapes, error) {
	read := func(n uint8, what string) (uint64, error) {
		v, err := br.ReadBits(n)
		if err != nil {
			return 0, malformed("shapes: truncated %s", what)
		}
		return v, nil
	}

	var s Shapes
	seen := map[string]bool{}
	for {
		keyLen, err := read(16, "key length")
		if err != nil {
			return nil, err
		}
		if keyLen == endMarker {
			break
		}
		key := make([]byte, keyLen)
		for i := range key {
			c, err := read(8, "key")
			if err != nil {
				return nil, err
			}
			key[i] = byte(c)
		}
		count, err := read(8, "shape count")
		if err != nil {
			return nil, err
		}
		shapes := make([]Shape, count)
		for i := range shapes {
			rows, err := read(32, "rows")
			if err != nil {
				return nil, err
			}
			cols, err := read(32, "cols")
			if err != nil {
				return nil, err
			}
			shapes[i] = Shape{Rows: int(rows), Cols: int(cols)}
		}

		k := string(key)
		if seen[k] {
			return nil, malformed("shapes: duplicate key %q", k)
		}
		seen[k] = true
		switch k {
		case shapesOriginal:
			if len(shapes) != len(s.Original) {
				return nil, malformed("shapes: %q has %d entries, want %d", k, len(shapes), len(s.Original))
			}
			copy(s.Original[:], shapes)
		case shapesPadded:
			if len(shapes) != len(s.Padded) {
				return nil, malformed("shapes: %q has %d entries, want %d", k, len(shapes), len(s.Padded))
			}
			copy(s.Padded[:], shapes)
		}
	}
	if !seen[shapesOriginal] || !seen[shapesPadded] {
		return nil, malformed("shapes: missing %q or %q", shapesOriginal, shapesPadded)
	}
	return &s, nil
}

// writeHuffmanTable stores each symbol as a 2-byte (run, size) string
// followed by its code length and code bits.
func writeHuffmanTable(bw *BitWriter, t *HuffmanTable) {
	for _, sym := range t.symbols() {
		c := t.codes[sym]
		bw.WriteBits(2, 16)
		_ = bw.WriteByte(sym.Run)
		_ = bw.WriteByte(sym.Size)
		bw.WriteBits(uint64(c.len), 8)
		bw.WriteBits(c.bits, c.len)
	}
	bw.WriteBits(endMarker, 16)
}

func readHuffmanTable(br *BitReader) (*HuffmanTable, error) {
	codes := make(map[RunSize]huffCode)
	for {
		n, err := br.ReadBits(16)
		if err != nil {
			return nil, malformed("huffman table: truncated symbol length")
		}
		if n == endMarker {
			break
		}
		if n != 2 {
			return nil, malformed("huffman table: symbol length %d, want 2", n)
		}
		sym, err := br.ReadBits(16)
		if err != nil {
			return nil, malformed("huffman table: truncated symbol")
		}
		rs := RunSize{Run: uint8(sym >> 8), Size: uint8(sym)}
		if _, dup := codes[rs]; dup {
			return nil, malformed("huffman table: duplicate symbol %v", rs)
		}
		l, err := br.ReadBits(8)
		if err != nil {
			return nil, malformed("huffman table: truncated code length")
		}
		if l == 0 || l > maxCodeLen {
			return nil, malformed("huffman table: code length %d", l)
		}
		bits, err := br.ReadBits(uint8(l))
		if err != nil {
			return nil, malformed("huffman table: truncated code")
		}
		codes[rs] = huffCode{bits: bits, len: uint8(l)}
	}
	if len(codes) == 0 {
		return nil, malformed("huffman table: empty")
	}
	return newHuffmanTable(codes)
}

// payload is everything one image contributes to the stream, before
// run-length and entropy coding. Blocks are zigzag-ordered and listed in
// raster block order.
type payload struct {
	ssv, ssh int
	shapes   Shapes
	lumaQ    QuantTable
	chromaQ  QuantTable
	y, alpha [][blockLen]int32
	cr, cb   [][blockLen]int32
}

// rleBlocks run-length codes every block in stream order: both
// quantization tables, then luma/alpha pairs, then Cr/Cb pairs.
func (pl *payload) rleBlocks() [][]rleToken {
	out := make([][]rleToken, 0, 2+2*len(pl.y)+2*len(pl.cr))
	for _, q := range []*QuantTable{&pl.lumaQ, &pl.chromaQ} {
		v := zigzagScan((*[blockLen]int32)(q))
		out = append(out, jpegRLEEncode(&v))
	}
	for i := range pl.y {
		out = append(out, jpegRLEEncode(&pl.y[i]), jpegRLEEncode(&pl.alpha[i]))
	}
	for i := range pl.cr {
		out = append(out, jpegRLEEncode(&pl.cr[i]), jpegRLEEncode(&pl.cb[i]))
	}
	return out
}

// marshal serializes the payload: ssv, ssh, shapes, Huffman table and the
// entropy-coded blocks.
func (pl *payload) marshal() (*Bitstream, error) {
	if len(pl.y) != len(pl.alpha) || len(pl.cr) != len(pl.cb) {
		return nil, errors.Errorf("payload: block counts differ (y=%d alpha=%d cr=%d cb=%d)", len(pl.y), len(pl.alpha), len(pl.cr), len(pl.cb))
	}
	blocks := pl.rleBlocks()
	table, err := buildHuffmanTable(blocks)
	if err != nil {
		return nil, err
	}

	bw := NewBitWriter()
	bw.WriteBits(uint64(pl.ssv), 8)
	bw.WriteBits(uint64(pl.ssh), 8)
	writeShapes(bw, &pl.shapes)
	writeHuffmanTable(bw, table)
	for _, blk := range blocks {
		if err := table.encodeBlock(bw, blk); err != nil {
			return nil, err
		}
	}
	return bw.Bitstream(), nil
}

func unmarshalPayload(bs *Bitstream) (*payload, error) {
	br := NewBitReader(bs)
	pl := &payload{}

	ss, err := br.ReadBits(16)
	if err != nil {
		return nil, malformed("truncated subsampling factors")
	}
	pl.ssv, pl.ssh = max(int(ss>>8), 1), max(int(ss&0xff), 1)

	shapes, err := readShapes(br)
	if err != nil {
		return nil, err
	}
	if err := shapes.validate(pl.ssv, pl.ssh); err != nil {
		return nil, err
	}
	pl.shapes = *shapes

	table, err := readHuffmanTable(br)
	if err != nil {
		return nil, err
	}

	nLuma := shapes.Padded[chY].blocks()
	nChroma := shapes.Padded[chCr].blocks()
	// Every block costs at least one bit.
	if total := 2 + 2*nLuma + 2*nChroma; total > br.Remaining() {
		return nil, malformed("%d blocks cannot fit in %d remaining bits", total, br.Remaining())
	}

	next := func() ([blockLen]int32, error) {
		tokens, err := table.decodeBlock(br)
		if err != nil {
			return [blockLen]int32{}, err
		}
		return jpegRLEDecode(tokens)
	}

	for _, q := range []*QuantTable{&pl.lumaQ, &pl.chromaQ} {
		v, err := next()
		if err != nil {
			return nil, errors.WithMessage(err, "quantization table")
		}
		*q = unscanBlock(&v)
		for _, e := range q {
			if e <= 0 {
				return nil, malformed("quantization table entry %d", e)
			}
		}
	}

	pl.y = make([][blockLen]int32, nLuma)
	pl.alpha = make([][blockLen]int32, nLuma)
	for i := 0; i < nLuma; i++ {
		if pl.y[i], err = next(); err != nil {
			return nil, errors.WithMessagef(err, "luma block %d", i)
		}
		if pl.alpha[i], err = next(); err != nil {
			return nil, errors.WithMessagef(err, "alpha block %d", i)
		}
	}
	pl.cr = make([][blockLen]int32, nChroma)
	pl.cb = make([][blockLen]int32, nChroma)
	for i := 0; i < nChroma; i++ {
		if pl.cr[i], err = next(); err != nil {
			return nil, errors.WithMessagef(err, "Cr block %d", i)
		}
		if pl.cb[i], err = next(); err != nil {
			return nil, errors.WithMessagef(err, "Cb block %d", i)
		}
	}
	if br.Remaining() != 0 {
		return nil, malformed("%d bits left after the last block", br.Remaining())
	}
	return pl, nil
}
