package main

import "github.com/pkg/errors"

// Error kinds returned by the codec. Callers match them with errors.Is;
// the returned errors carry additional context and a stack trace.
var (
	ErrMalformedBitstream       = errors.New("gpeg: malformed bitstream")
	ErrInvalidDimensions        = errors.New("gpeg: invalid image dimensions")
	ErrInvalidSubsamplingFactor = errors.New("gpeg: invalid subsampling factor")
	ErrUnsupportedBlockSize     = errors.New("gpeg: unsupported block size")
	ErrInvalidQuality           = errors.New("gpeg: quality factor must be positive")
)

func malformed(format string, args ...any) error {
	return errors.Wrapf(ErrMalformedBitstream, format, args...)
}
