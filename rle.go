package main

import "math/bits"

// RunSize is the run/size symbol of the JPEG-style coder: the number of
// zeros preceding a nonzero coefficient and the bit width of its literal.
type RunSize struct {
	Run  uint8
	Size uint8
}

// EOB is the end-of-block sentinel.
var EOB = RunSize{}

// rleToken is one run/size symbol plus its literal (unused for EOB).
type rleToken struct {
	Sym   RunSize
	Value int32
}

// bitSize returns the literal width for a nonzero v: its magnitude bit
// length plus one sign bit.
func bitSize(v int32) uint8 {
	m := v
	if m < 0 {
		m = -m
	}
	return uint8(bits.Len32(uint32(m))) + 1
}

// jpegRLEEncode codes a zigzag-ordered block. The EOB sentinel is always
// appended, including after a trailing nonzero coefficient.
func jpegRLEEncode(v *[blockLen]int32) []rleToken {
	out := make([]rleToken, 0, 8)
	var run uint8
	for _, c := range v {
		if c == 0 {
			run++
			continue
		}
		out = append(out, rleToken{Sym: RunSize{Run: run, Size: bitSize(c)}, Value: c})
		run = 0
	}
	return append(out, rleToken{Sym: EOB})
}

// jpegRLEDecode expands tokens back into a 64-coefficient block. Decoding
// stops at the first EOB; a stream that overruns 64 coefficients or lacks
// an EOB is malformed.
func jpegRLEDecode(tokens []rleToken) ([blockLen]int32, error) {
	var out [blockLen]int32
	pos := 0
	for _, t := range tokens {
		if t.Sym == EOB {
			return out, nil
		}
		pos += int(t.Sym.Run)
		if pos >= blockLen {
			return out, malformed("zero run overflows block at coefficient %d", pos)
		}
		out[pos] = t.Value
		pos++
	}
	return out, malformed("block has no end-of-block symbol")
}

// RunPair is one (value, count) pair of the generic run-length coder.
type RunPair[T comparable] struct {
	Value T
	Count int
}

// rleEncode collapses consecutive equal values into (value, count) pairs.
func rleEncode[T comparable](v []T) []RunPair[T] {
	var out []RunPair[T]
	for i := 0; i < len(v); {
		j := i + 1
		for j < len(v) && v[j] == v[i] {
			j++
		}
		out = append(out, RunPair[T]{Value: v[i], Count: j - i})
		i = j
	}
	return out
}

// rleDecode expands pairs produced by rleEncode. The output length is the
// sum of all counts.
func rleDecode[T comparable](pairs []RunPair[T]) []T {
	total := 0
	for _, p := range pairs {
		if p.Count > 0 {
			total += p.Count
		}
	}
	out := make([]T, 0, total)
	for _, p := range pairs {
		for k := 0; k < p.Count; k++ {
			out = append(out, p.Value)
		}
	}
	return out
}
