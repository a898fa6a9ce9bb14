package unpack

import (
	"io"

	"github.com/pkg/errors"
)

// WindowSize is the history size used by DEFLATE.
const WindowSize = 1 << 15

// ErrDistanceTooFar is returned when a match refers to data before the start
// of the stream, or further back than the window holds.
var ErrDistanceTooFar = errors.New("distance too far back")

// A Window is the circular history buffer of an LZ77 decoder. Every byte of
// output passes through it: matches copy from it, and Flush hands the bytes
// that have not been written out yet to a sink.
//
// The zero value is not usable; use NewWindow.
type Window struct {
	hist []byte

	pos     int   // where the next byte will be written
	size    int   // number of valid bytes in hist (saturates at len(hist))
	pending int   // bytes written but not yet flushed
	total   int64 // bytes written since the last Reset
}

// NewWindow returns a Window that holds the last size bytes of output.
func NewWindow(size int) *Window {
	return &Window{hist: make([]byte, size)}
}

func (w *Window) Reset() {
	w.pos = 0
	w.size = 0
	w.pending = 0
	w.total = 0
}

// Cap returns the capacity of the window.
func (w *Window) Cap() int { return len(w.hist) }

// Len returns the number of bytes of history available to matches.
func (w *Window) Len() int { return w.size }

// Total returns the number of bytes written since the last Reset.
func (w *Window) Total() int64 { return w.total }

// Pending returns the number of bytes that have not been flushed yet.
func (w *Window) Pending() int { return w.pending }

// Available returns how many bytes can be written before unflushed output
// would be overwritten.
func (w *Window) Available() int { return len(w.hist) - w.pending }

// WriteByte appends c to the window. The caller must make sure Available is
// not zero.
func (w *Window) WriteByte(c byte) error {
	w.hist[w.pos] = c
	w.advance()
	return nil
}

// Write appends p to the window, up to Available bytes. It returns the
// number of bytes written.
func (w *Window) Write(p []byte) (int, error) {
	if len(p) > w.Available() {
		p = p[:w.Available()]
	}
	written := 0
	for len(p) > 0 {
		n := copy(w.hist[w.pos:], p)
		p = p[n:]
		written += n
		w.pos += n
		if w.pos == len(w.hist) {
			w.pos = 0
		}
		w.size += n
		if w.size > len(w.hist) {
			w.size = len(w.hist)
		}
		w.pending += n
		w.total += int64(n)
	}
	return written, nil
}

// Copy appends length bytes copied from distance bytes back. The source and
// destination may overlap (distance < length); the copy goes one byte at a
// time, so a short distance repeats the same bytes.
func (w *Window) Copy(distance, length int) error {
	if distance <= 0 || distance > w.size {
		return ErrDistanceTooFar
	}
	if length > w.Available() {
		return errors.Errorf("window overflow: copy of %d bytes with %d available", length, w.Available())
	}

	src := w.pos - distance
	if src < 0 {
		src += len(w.hist)
	}
	for i := 0; i < length; i++ {
		w.hist[w.pos] = w.hist[src]
		w.advance()
		src++
		if src == len(w.hist) {
			src = 0
		}
	}
	return nil
}

func (w *Window) advance() {
	w.pos++
	if w.pos == len(w.hist) {
		w.pos = 0
	}
	if w.size < len(w.hist) {
		w.size++
	}
	w.pending++
	w.total++
}

// Flush writes the pending bytes to dst, oldest first.
func (w *Window) Flush(dst io.Writer) error {
	for w.pending > 0 {
		start := w.pos - w.pending
		if start < 0 {
			start += len(w.hist)
		}
		end := start + w.pending
		if end > len(w.hist) {
			end = len(w.hist)
		}
		n, err := dst.Write(w.hist[start:end])
		w.pending -= n
		if err != nil {
			return err
		}
		if n < end-start {
			return io.ErrShortWrite
		}
	}
	return nil
}

// History appends the last n bytes of history to dst, oldest first.
// n is limited to Len.
func (w *Window) History(dst []byte, n int) []byte {
	if n > w.size {
		n = w.size
	}
	start := w.pos - n
	if start < 0 {
		start += len(w.hist)
		dst = append(dst, w.hist[start:]...)
		start = 0
	}
	return append(dst, w.hist[start:w.pos]...)
}
