package unpack

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// A Reader decompresses data from Source, using Decoder. It pulls input from
// Source only when Decoder reports ErrInputExhausted.
type Reader struct {
	Source  io.Reader
	Decoder Decoder

	// BufferSize is the size of the chunks read from Source.
	// If it is 0, 4096 is used.
	BufferSize int

	inBuf  []byte
	outBuf bytes.Buffer
	err    error

	// emptyReads counts consecutive reads from Source that returned no data
	// and no error.
	emptyReads int
}

const maxEmptyReads = 100

func (r *Reader) Read(p []byte) (int, error) {
	for r.outBuf.Len() == 0 && r.err == nil {
		r.fill()
	}
	if r.outBuf.Len() > 0 {
		return r.outBuf.Read(p)
	}
	return 0, r.err
}

// WriteTo implements io.WriterTo, so that io.Copy skips the intermediate
// buffer copy.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for {
		if r.outBuf.Len() > 0 {
			n, err := r.outBuf.WriteTo(w)
			total += n
			if err != nil {
				return total, err
			}
		}
		if r.err != nil {
			if r.err == io.EOF {
				return total, nil
			}
			return total, r.err
		}
		r.fill()
	}
}

// fill runs the decoder once, reading more input first if it asks for it.
// It sets r.err to io.EOF at the end of the stream.
func (r *Reader) fill() {
	if r.Decoder.Done() {
		r.err = io.EOF
		return
	}

	err := r.Decoder.Decode(&r.outBuf)
	switch {
	case err == nil:
		return
	case !errors.Is(err, ErrInputExhausted):
		r.err = err
		return
	}

	if r.inBuf == nil {
		size := r.BufferSize
		if size == 0 {
			size = 4096
		}
		r.inBuf = make([]byte, size)
	}
	n, err := r.Source.Read(r.inBuf)
	if n > 0 {
		r.Decoder.Feed(r.inBuf[:n])
		r.emptyReads = 0
	}
	switch {
	case err == io.EOF:
		if n == 0 {
			r.err = io.ErrUnexpectedEOF
		}
	case err != nil:
		r.err = err
	case n == 0:
		r.emptyReads++
		if r.emptyReads >= maxEmptyReads {
			r.err = io.ErrNoProgress
		}
	}
}

// Reset discards any buffered data and prepares r to decompress a new stream
// from src.
func (r *Reader) Reset(src io.Reader) {
	r.Source = src
	r.Decoder.Reset()
	r.outBuf.Reset()
	r.err = nil
	r.emptyReads = 0
}

var errClosed = errors.New("unpack: read from closed Reader")

// Close makes further reads fail. It does not close Source.
func (r *Reader) Close() error {
	if r.err == nil || r.err == io.EOF {
		r.err = errClosed
	}
	return nil
}
