package flate

import (
	"io"

	"github.com/andybalholm/unpack"
)

// NewReader returns a new unpack.Reader that decompresses the raw DEFLATE
// stream read from r. The Reader reads from r only when the decoder needs
// more input, but it may read past the end of the stream; use a Decoder
// directly to recover the bytes that follow.
func NewReader(r io.Reader) *unpack.Reader {
	return &unpack.Reader{
		Source:  r,
		Decoder: NewDecoder(),
	}
}
