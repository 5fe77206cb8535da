package main

import "io"

// Bitstream is an immutable sequence of bits stored msb-first in bytes.
// Trailing bits of the last byte beyond Len are zero.
type Bitstream struct {
	data []byte
	n    int
}

// NewBitstream wraps data holding exactly n meaningful bits.
// It returns ErrMalformedBitstream when n does not fit in data.
func NewBitstream(data []byte, n int) (*Bitstream, error) {
	if n < 0 || (n+7)/8 > len(data) {
		return nil, malformed("bit length %d does not fit %d bytes", n, len(data))
	}
	return &Bitstream{data: data[:(n+7)/8], n: n}, nil
}

// Len returns the number of bits.
func (bs *Bitstream) Len() int { return bs.n }

// Bytes returns the bits left-justified and zero-padded to a byte boundary.
func (bs *Bitstream) Bytes() []byte { return bs.data }

// String renders the bits as '0'/'1' characters.
func (bs *Bitstream) String() string {
	out := make([]byte, bs.n)
	for i := 0; i < bs.n; i++ {
		out[i] = '0'
		if bs.data[i>>3]&(1<<(7-uint(i&7))) != 0 {
			out[i] = '1'
		}
	}
	return string(out)
}

// BitWriter appends bits msb-first. Unlike a byte-stream writer it never
// flushes partial bytes: the exact bit count is kept for the container.
type BitWriter struct {
	buf  []byte
	acc  byte
	nbit uint8 // bits held in acc (0..7)
	n    int
}

func NewBitWriter() *BitWriter {
	return &BitWriter{}
}

// WriteBit writes a single bit.
func (bw *BitWriter) WriteBit(v bool) {
	bw.acc <<= 1
	if v {
		bw.acc |= 1
	}
	bw.nbit++
	bw.n++
	if bw.nbit == 8 {
		bw.buf = append(bw.buf, bw.acc)
		bw.acc = 0
		bw.nbit = 0
	}
}

// WriteBits writes the low n bits of v, msb-first. n must be <= 64.
// For example, if n=4 and v=0b1011, this writes: 1,0,1,1.
func (bw *BitWriter) WriteBits(v uint64, n uint8) {
	for n > 0 {
		free := 8 - bw.nbit
		k := free
		if k > n {
			k = n
		}
		shift := n - k
		chunk := byte((v >> shift) & ((1 << k) - 1))

		bw.acc = (bw.acc << k) | chunk
		bw.nbit += k
		bw.n += int(k)
		n -= k

		if bw.nbit == 8 {
			bw.buf = append(bw.buf, bw.acc)
			bw.acc = 0
			bw.nbit = 0
		}
	}
}

// WriteByte writes 8 bits regardless of alignment.
func (bw *BitWriter) WriteByte(b byte) error {
	bw.WriteBits(uint64(b), 8)
	return nil
}

// Len returns the number of bits written so far.
func (bw *BitWriter) Len() int { return bw.n }

// Bitstream returns a snapshot of everything written so far.
func (bw *BitWriter) Bitstream() *Bitstream {
	data := make([]byte, len(bw.buf), len(bw.buf)+1)
	copy(data, bw.buf)
	if bw.nbit > 0 {
		data = append(data, bw.acc<<(8-bw.nbit))
	}
	return &Bitstream{data: data, n: bw.n}
}

// BitReader consumes a Bitstream front to back.
type BitReader struct {
	data []byte
	n    int
	pos  int
}

func NewBitReader(bs *Bitstream) *BitReader {
	return &BitReader{data: bs.data, n: bs.n}
}

// Remaining returns the number of unread bits.
func (br *BitReader) Remaining() int { return br.n - br.pos }

// ReadBit returns the next bit, or io.ErrUnexpectedEOF past the end.
func (br *BitReader) ReadBit() (bool, error) {
	if br.pos >= br.n {
		return false, io.ErrUnexpectedEOF
	}
	bit := br.data[br.pos>>3]&(1<<(7-uint(br.pos&7))) != 0
	br.pos++
	return bit, nil
}

// ReadBits reads n (0..64) bits msb-first into the low bits of the result.
func (br *BitReader) ReadBits(n uint8) (uint64, error) {
	if int(n) > br.Remaining() {
		return 0, io.ErrUnexpectedEOF
	}
	var out uint64
	for n > 0 {
		off := uint8(br.pos & 7)
		rem := 8 - off
		k := rem
		if k > n {
			k = n
		}
		b := br.data[br.pos>>3]
		chunk := (b >> (rem - k)) & byte((1<<k)-1)
		out = out<<k | uint64(chunk)
		br.pos += int(k)
		n -= k
	}
	return out, nil
}

// ReadByte reads 8 bits regardless of alignment.
func (br *BitReader) ReadByte() (byte, error) {
	v, err := br.ReadBits(8)
	return byte(v), err
}
