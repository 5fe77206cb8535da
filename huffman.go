package main

import (
	"container/heap"
	"sort"

	"github.com/pkg/errors"
)

// maxCodeLen bounds code lengths so a code fits in a uint64 and in the
// 8-bit length field of the serialized table.
const maxCodeLen = 64

// huffCode is a prefix code: the low len bits of bits, msb-first.
type huffCode struct {
	bits uint64
	len  uint8
}

// HuffmanTable maps run/size symbols to prefix codes. A table is built
// once per image and shared by every block of that image.
type HuffmanTable struct {
	codes  map[RunSize]huffCode
	lookup map[huffCode]RunSize
	maxLen uint8
}

// newHuffmanTable validates codes and prepares the decode lookup.
func newHuffmanTable(codes map[RunSize]huffCode) (*HuffmanTable, error) {
	t := &HuffmanTable{
		codes:  codes,
		lookup: make(map[huffCode]RunSize, len(codes)),
	}
	for sym, c := range codes {
		if c.len == 0 || c.len > maxCodeLen {
			return nil, malformed("huffman code for %v has length %d", sym, c.len)
		}
		if other, dup := t.lookup[c]; dup {
			return nil, malformed("huffman code shared by %v and %v", other, sym)
		}
		t.lookup[c] = sym
		if c.len > t.maxLen {
			t.maxLen = c.len
		}
	}
	return t, nil
}

// Len returns the number of symbols in the table.
func (t *HuffmanTable) Len() int { return len(t.codes) }

// symbols returns the table symbols ordered by run, then size.
func (t *HuffmanTable) symbols() []RunSize {
	out := make([]RunSize, 0, len(t.codes))
	for sym := range t.codes {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Run != out[j].Run {
			return out[i].Run < out[j].Run
		}
		return out[i].Size < out[j].Size
	})
	return out
}

// symbolCounts keeps frequencies together with first-seen order, which is
// the tie-break used while building the tree.
type symbolCounts struct {
	order []RunSize
	freq  map[RunSize]int
}

func countSymbols(blocks [][]rleToken) symbolCounts {
	sc := symbolCounts{freq: make(map[RunSize]int)}
	for _, blk := range blocks {
		for _, tok := range blk {
			if _, seen := sc.freq[tok.Sym]; !seen {
				sc.order = append(sc.order, tok.Sym)
			}
			sc.freq[tok.Sym]++
		}
	}
	return sc
}

type huffNode struct {
	sym         RunSize
	freq        int
	seq         int // arrival order; leaves first, then merged nodes
	left, right *huffNode
}

// huffHeap is a min-heap by frequency; equal frequencies pop in arrival order.
type huffHeap []*huffNode

func (h huffHeap) Len() int { return len(h) }
func (h huffHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].seq < h[j].seq
}
func (h huffHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *huffHeap) Push(x any) {
	*h = append(*h, x.(*huffNode))
}

func (h *huffHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// buildHuffmanTable builds one code for every symbol of blocks by
// repeatedly merging the two least frequent nodes. Left edges are 0,
// right edges are 1.
func buildHuffmanTable(blocks [][]rleToken) (*HuffmanTable, error) {
	sc := countSymbols(blocks)
	if len(sc.order) == 0 {
		return nil, errors.New("huffman: no symbols to code")
	}

	nodes := make(huffHeap, 0, len(sc.order))
	for i, sym := range sc.order {
		nodes = append(nodes, &huffNode{sym: sym, freq: sc.freq[sym], seq: i})
	}
	heap.Init(&nodes)
	seq := len(nodes)
	for nodes.Len() > 1 {
		left := heap.Pop(&nodes).(*huffNode)
		right := heap.Pop(&nodes).(*huffNode)
		heap.Push(&nodes, &huffNode{freq: left.freq + right.freq, seq: seq, left: left, right: right})
		seq++
	}
	root := nodes[0]

	codes := make(map[RunSize]huffCode, len(sc.order))
	if root.left == nil {
		// A lone symbol still needs one bit per occurrence.
		codes[root.sym] = huffCode{bits: 0, len: 1}
		return newHuffmanTable(codes)
	}

	type item struct {
		node *huffNode
		code huffCode
	}
	work := []item{{node: root}}
	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]
		if it.node.left == nil {
			codes[it.node.sym] = it.code
			continue
		}
		if it.code.len == maxCodeLen {
			return nil, errors.Errorf("huffman: code length exceeds %d bits", maxCodeLen)
		}
		work = append(work,
			item{node: it.node.right, code: huffCode{bits: it.code.bits<<1 | 1, len: it.code.len + 1}},
			item{node: it.node.left, code: huffCode{bits: it.code.bits << 1, len: it.code.len + 1}},
		)
	}
	return newHuffmanTable(codes)
}

// encodeBlock writes each token's code followed, for non-EOB tokens, by
// the literal in Size bits (two's complement for negative values).
func (t *HuffmanTable) encodeBlock(bw *BitWriter, tokens []rleToken) error {
	for _, tok := range tokens {
		c, ok := t.codes[tok.Sym]
		if !ok {
			return errors.Errorf("huffman: symbol %v missing from table", tok.Sym)
		}
		bw.WriteBits(c.bits, c.len)
		if tok.Sym == EOB || tok.Value == 0 {
			continue
		}
		size := tok.Sym.Size
		bw.WriteBits(uint64((int64(1)<<size)+int64(tok.Value))&(1<<size-1), size)
	}
	return nil
}

// readSymbol accumulates bits until they match a code.
func (t *HuffmanTable) readSymbol(br *BitReader) (RunSize, error) {
	var c huffCode
	for {
		bit, err := br.ReadBit()
		if err != nil {
			return RunSize{}, malformed("truncated huffman code after %d bits", c.len)
		}
		c.bits <<= 1
		if bit {
			c.bits |= 1
		}
		c.len++
		if sym, ok := t.lookup[c]; ok {
			return sym, nil
		}
		if c.len >= t.maxLen {
			return RunSize{}, malformed("no huffman code matches %0*b", int(c.len), c.bits)
		}
	}
}

// decodeBlock reads tokens up to and including the next EOB.
func (t *HuffmanTable) decodeBlock(br *BitReader) ([]rleToken, error) {
	out := make([]rleToken, 0, 8)
	for {
		sym, err := t.readSymbol(br)
		if err != nil {
			return nil, err
		}
		if sym == EOB {
			return append(out, rleToken{Sym: EOB}), nil
		}
		if sym.Size == 0 || sym.Size > 32 {
			return nil, malformed("symbol %v has invalid literal size", sym)
		}
		raw, err := br.ReadBits(sym.Size)
		if err != nil {
			return nil, malformed("truncated literal for symbol %v", sym)
		}
		v := int64(raw)
		if raw>>(sym.Size-1) == 1 {
			v -= int64(1) << sym.Size
		}
		out = append(out, rleToken{Sym: sym, Value: int32(v)})
		if len(out) > blockLen {
			return nil, malformed("block has more than %d coefficients", blockLen)
		}
	}
}
