package main

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestDCT_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 50; n++ {
		var block, orig [blockLen]float64
		for i := range block {
			block[i] = rng.Float64()*255 - 128
		}
		orig = block
		forwardDCT(&block)
		inverseDCT(&block)
		for i := range block {
			if math.Abs(block[i]-orig[i]) > 1e-9 {
				t.Fatalf("sample %d: got %v, want %v", i, block[i], orig[i])
			}
		}
	}
}

func TestDCT_ConstantBlockIsPureDC(t *testing.T) {
	var block [blockLen]float64
	for i := range block {
		block[i] = -20
	}
	forwardDCT(&block)
	if math.Abs(block[0]-(-160)) > 1e-9 {
		t.Fatalf("DC = %v, want -160", block[0])
	}
	for i := 1; i < blockLen; i++ {
		if math.Abs(block[i]) > 1e-9 {
			t.Fatalf("AC[%d] = %v, want 0", i, block[i])
		}
	}
}

func TestQuantizeBlock_ZeroBlock(t *testing.T) {
	var block [blockLen]float64
	q := DefaultLumaTable
	if got := quantizeBlock(&block, &q); got != ([blockLen]int32{}) {
		t.Fatalf("quantized zero block = %v", got)
	}
}

func TestQuantTable_Scale(t *testing.T) {
	same, err := DefaultLumaTable.Scale(1)
	if err != nil {
		t.Fatalf("Scale(1): %v", err)
	}
	if same != DefaultLumaTable {
		t.Fatalf("Scale(1) changed the table")
	}

	half, err := DefaultLumaTable.Scale(2)
	if err != nil {
		t.Fatalf("Scale(2): %v", err)
	}
	// 16/2=8, 11/2=5.5 rounds to 6, 13/2=6.5 rounds to 6.
	for _, tc := range []struct{ idx, want int32 }{{0, 8}, {1, 6}, {17, 6}} {
		if got := half[tc.idx]; got != tc.want {
			t.Errorf("Scale(2)[%d] = %d, want %d", tc.idx, got, tc.want)
		}
	}

	fine, err := DefaultChromaTable.Scale(1000)
	if err != nil {
		t.Fatalf("Scale(1000): %v", err)
	}
	for i, v := range fine {
		if v != 1 {
			t.Fatalf("Scale(1000)[%d] = %d, want clamp to 1", i, v)
		}
	}

	coarse, err := DefaultChromaTable.Scale(0.5)
	if err != nil {
		t.Fatalf("Scale(0.5): %v", err)
	}
	if coarse[0] != 34 || coarse[63] != 198 {
		t.Fatalf("Scale(0.5) = %d..%d, want 34..198", coarse[0], coarse[63])
	}
}

func TestQuantTable_ScaleInvalid(t *testing.T) {
	for _, f := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := DefaultLumaTable.Scale(f); !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("Scale(%v): expected ErrInvalidQuality, got %v", f, err)
		}
	}
}

func randomPlane(rng *rand.Rand, rows, cols int) *Plane {
	p := newPlane(rows, cols)
	for i := range p.Pix {
		p.Pix[i] = float64(rng.Intn(256))
	}
	return p
}

func TestTransformPlane_RoundTrip(t *testing.T) {
	var ones QuantTable
	for i := range ones {
		ones[i] = 1
	}
	rng := rand.New(rand.NewSource(4))

	for _, parallel := range []bool{false, true} {
		p := randomPlane(rng, 13, 10)
		blocks, padded := transformPlane(p, &ones, parallel)
		if padded != (Shape{Rows: 16, Cols: 16}) {
			t.Fatalf("padded = %v, want 16x16", padded)
		}
		if len(blocks) != 4 {
			t.Fatalf("%d blocks, want 4", len(blocks))
		}

		back := reconstructPlane(blocks, padded, p.Shape(), &ones, parallel)
		if back.Shape() != p.Shape() {
			t.Fatalf("shape = %v, want %v", back.Shape(), p.Shape())
		}
		var sum float64
		for i := range p.Pix {
			d := math.Abs(back.Pix[i] - p.Pix[i])
			if d > 3 {
				t.Fatalf("sample %d off by %v", i, d)
			}
			sum += d
		}
		if mae := sum / float64(len(p.Pix)); mae > 0.5 {
			t.Fatalf("mean error %v", mae)
		}
	}
}

func TestTransformPlane_MidGreyIsZero(t *testing.T) {
	p := newPlane(3, 3)
	for i := range p.Pix {
		p.Pix[i] = 128
	}
	q := DefaultLumaTable
	blocks, _ := transformPlane(p, &q, false)
	if len(blocks) != 1 {
		t.Fatalf("%d blocks, want 1", len(blocks))
	}
	if blocks[0] != ([blockLen]int32{}) {
		t.Fatalf("mid-grey block = %v, want all zero", blocks[0])
	}
}

func TestTransformPlane_RasterOrder(t *testing.T) {
	// Four blocks with distinct flat levels; their DC terms must come out
	// in raster order.
	p := newPlane(16, 16)
	levels := [4]float64{0, 64, 192, 255}
	for r := 0; r < 16; r++ {
		for c := 0; c < 16; c++ {
			p.Set(r, c, levels[(r/8)*2+c/8])
		}
	}
	var ones QuantTable
	for i := range ones {
		ones[i] = 1
	}
	blocks, _ := transformPlane(p, &ones, true)
	for i, lvl := range levels {
		if want := int32(8 * (lvl - 128)); blocks[i][0] != want {
			t.Fatalf("block %d DC = %d, want %d", i, blocks[i][0], want)
		}
	}
}
