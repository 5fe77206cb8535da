package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

func main() {
	opts := DefaultOptions()
	flag.Float64Var(&opts.Quality, "q", opts.Quality, "quality factor dividing the quantization tables (> 0)")
	flag.IntVar(&opts.VerticalSubsampling, "ssv", opts.VerticalSubsampling, "vertical chroma subsampling (0..255)")
	flag.IntVar(&opts.HorizontalSubsampling, "ssh", opts.HorizontalSubsampling, "horizontal chroma subsampling (0..255)")
	zst := flag.Bool("zstd", false, "wrap the output in a zstd frame ("+ExtZstd+")")
	out := flag.String("o", "", "output path")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Encode: gpeg [-q factor] [-ssv n] [-ssh n] [-zstd] [-o out] <input-image>\nDecode: gpeg [-o out.png] <input%s|input%s>\n", Ext, ExtZstd)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	inputPath := flag.Arg(0)
	ext := strings.ToLower(filepath.Ext(inputPath))
	base := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))

	// Compressed input → decode to PNG
	if ext == Ext || ext == ExtZstd {
		outPath := *out
		if outPath == "" {
			outPath = base + ".png"
		}
		if err := decodeToPNG(inputPath, outPath); err != nil {
			fmt.Fprintln(os.Stderr, "decode error:", err)
			os.Exit(1)
		}
		fmt.Printf("Decoded %s → %s\n", inputPath, outPath)
		return
	}

	outPath := *out
	if outPath == "" {
		outPath = base + Ext
		if *zst {
			outPath = base + ExtZstd
		}
	}
	st, err := encodeImage(inputPath, outPath, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode error:", err)
		os.Exit(1)
	}
	fmt.Printf("Encoded %s (q=%g ssv=%d ssh=%d) → %s\n", inputPath, opts.Quality, opts.VerticalSubsampling, opts.HorizontalSubsampling, outPath)
	fmt.Printf("original: %d bits, compressed: %d bits, ratio: %.2f%%\n", st.OriginalBits, st.CompressedBits, st.Ratio*100)
}

func encodeImage(inPath, outPath string, opts *Options) (*Stats, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", inPath)
	}

	bs, st, err := Encode(img, opts)
	if err != nil {
		return nil, err
	}
	if err := WriteFile(outPath, bs); err != nil {
		return nil, err
	}
	return st, nil
}

func decodeToPNG(inPath, outPath string) error {
	bs, err := ReadFile(inPath)
	if err != nil {
		return err
	}

	dec, err := Decode(bs)
	if err != nil {
		return err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer out.Close()

	if err := png.Encode(out, dec); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
