// The unpack package is a modular system for data decompression.
//
// LZ77-based formats share most of their decoding machinery:
//  - Something that turns the compressed bits into literals and matches
//  - A history window that the matches copy from
//
// The format-specific part lives in a subpackage (see flate); this package
// holds the pieces that every format can share: the Match representation,
// the sliding Window, a Reader that connects a resumable Decoder to an input
// source, and a Recoder that re-encodes decoded data in another format (see
// lz4 and snappy) by reusing the matches the decoder found.
package unpack

import (
	"io"

	"github.com/pkg/errors"
)

// A Match is the basic unit of LZ77 compression.
type Match struct {
	Unmatched int // the number of unmatched bytes since the previous match
	Length    int // the number of bytes in the matched string; it may be 0 at the end of the input
	Distance  int // how far back in the stream to copy from
}

// ErrInputExhausted is returned by a Decoder when it needs more input before
// it can make progress. It does not mean the input is corrupt; feed more data
// and call Decode again.
var ErrInputExhausted = errors.New("need more input")

// A Decoder is a resumable stream decoder. It consumes compressed bytes as
// they are fed to it and pushes decoded bytes to a sink.
type Decoder interface {
	// Feed appends p to the decoder's pending input. The decoder keeps its
	// own copy.
	Feed(p []byte)

	// Decode decodes as much of the pending input as it can, writing the
	// output to dst. It returns nil when the end of the stream has been
	// reached, ErrInputExhausted when more input is needed, or another
	// error if the stream is corrupt.
	Decode(dst io.Writer) error

	// Done reports whether the end of the stream has been decoded.
	Done() bool

	// Reset clears any internal state, preparing the Decoder to be used with
	// a new stream.
	Reset()
}

// An Encoder encodes data in an LZ77-based format, given the matches that
// describe it. Recoder uses one to convert decoded data to another format
// without searching for matches again.
type Encoder interface {
	// Header appends the appropriate stream header to dst.
	Header(dst []byte) []byte

	// Encode appends the encoded format of src to dst, using the match
	// information from matches. The matches cover src exactly; the last one
	// may have a Length of 0.
	Encode(dst []byte, src []byte, matches []Match, lastBlock bool) []byte

	// Reset clears any internal state, preparing the Encoder to be used with
	// a new stream.
	Reset()
}
