package flate

import (
	"github.com/pkg/errors"

	"github.com/andybalholm/unpack"
)

// ErrInputExhausted means the decoder needs more input. It is the only
// error a Decoder recovers from: Feed more data and call Decode again.
var ErrInputExhausted = unpack.ErrInputExhausted

// Corrupt-stream errors. Once one of these is returned, the Decoder is
// stuck on it until Reset. The returned error wraps one of these values;
// use errors.Is to test for them.
var (
	ErrInvalidBlockType     = errors.New("invalid block type")
	ErrStoredLengthMismatch = errors.New("stored block length check failed")
	ErrInvalidHuffmanTable  = errors.New("invalid Huffman code lengths")
	ErrInvalidRepeatCode    = errors.New("invalid code length repeat")
	ErrRanOutOfCodes        = errors.New("ran out of codes")
	ErrInvalidSymbol        = errors.New("invalid symbol")
	ErrDistanceTooFar       = unpack.ErrDistanceTooFar
)

// ErrHeader is returned when a gzip or zlib header is invalid or unsupported.
var ErrHeader = errors.New("flate: invalid container header")
