package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	// Ext is the extension of a plain persisted stream.
	Ext = ".gpeg"
	// ExtZstd is the extension of a stream wrapped in a zstd frame.
	ExtZstd = ".gpz"
)

// MarshalFile lays out a bitstream as a big-endian uint32 bit length
// followed by the bits, left-justified and zero-padded to a byte boundary.
func MarshalFile(bs *Bitstream) ([]byte, error) {
	if uint64(bs.Len()) > math.MaxUint32 {
		return nil, errors.Errorf("bitstream of %d bits does not fit a 32-bit length", bs.Len())
	}
	out := make([]byte, 4, 4+len(bs.Bytes()))
	binary.BigEndian.PutUint32(out, uint32(bs.Len()))
	return append(out, bs.Bytes()...), nil
}

// UnmarshalFile is the inverse of MarshalFile.
func UnmarshalFile(data []byte) (*Bitstream, error) {
	if len(data) < 4 {
		return nil, malformed("file header: %d bytes, want 4", len(data))
	}
	n := binary.BigEndian.Uint32(data)
	body := data[4:]
	if want := (int(n) + 7) / 8; len(body) != want {
		return nil, malformed("file body: %d bytes for %d bits, want %d", len(body), n, want)
	}
	return NewBitstream(body, int(n))
}

// plainFile reports whether data is laid out exactly as MarshalFile would.
func plainFile(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	n := binary.BigEndian.Uint32(data)
	return len(data)-4 == (int(n)+7)/8
}

// unwrapFile returns the bitstream held in file bytes, unwrapping a zstd
// frame first when the data is not a plain stream.
func unwrapFile(data []byte) (*Bitstream, error) {
	if !plainFile(data) && zstdFrame(data) {
		plain, err := DecodeZstd(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		data = plain
	}
	return UnmarshalFile(data)
}

// WriteFile persists bs at path. A ".gpz" extension wraps the file bytes
// in a zstd frame.
func WriteFile(path string, bs *Bitstream) (err error) {
	data, err := MarshalFile(bs)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.WithStack(cerr)
		}
	}()

	if strings.EqualFold(filepath.Ext(path), ExtZstd) {
		return EncodeZstd(f, data)
	}
	if _, err := f.Write(data); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// ReadFile loads a bitstream written by WriteFile.
func ReadFile(path string) (*Bitstream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return unwrapFile(data)
}
