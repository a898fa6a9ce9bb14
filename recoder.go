package unpack

import (
	"io"

	"github.com/pkg/errors"
)

// A Recoder re-encodes decompressed data with an Encoder, reusing the matches
// recorded by the decoder instead of searching for new ones.
//
// The decoded bytes are passed to Write, and the matches that describe them
// to AddMatches, both in stream order. The matches may lag behind the data,
// but any bytes written before a call to AddMatches that are not covered by
// its matches are taken to be literals.
type Recoder struct {
	Dest    io.Writer
	Encoder Encoder

	// BlockSize is the largest amount of data passed to Encoder at once.
	// If it is 0, 65536 is used.
	BlockSize int

	// MinLength is the shortest match the format can represent, and
	// MaxDistance the longest distance (0 for no limit). Other matches are
	// written as literals.
	MinLength   int
	MaxDistance int

	// Independent is set for formats whose blocks can't refer back to data
	// in earlier blocks.
	Independent bool

	data     []byte  // data not yet encoded; data[:blockLen] is the current block
	block    []Match // matches in the current block
	blockLen int
	lits     int // literals at the end of the block, not yet in a Match

	// ahead counts literals already added to blocks before the Match they
	// belong to arrived.
	ahead int

	out         []byte
	wroteHeader bool
	closed      bool
	err         error
}

// maxMatchSpan is the longest match a block must be able to hold.
const maxMatchSpan = 258

func (r *Recoder) blockSize() int {
	if r.BlockSize == 0 {
		return 65536
	}
	if r.BlockSize < maxMatchSpan {
		return maxMatchSpan
	}
	return r.BlockSize
}

// Write buffers decoded data. It is never encoded before the matches that
// cover it are known.
func (r *Recoder) Write(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.closed {
		return 0, errors.New("unpack: write to closed Recoder")
	}
	r.data = append(r.data, p...)
	return len(p), nil
}

// AddMatches encodes the data covered by matches, as far as complete blocks
// allow.
func (r *Recoder) AddMatches(matches []Match) error {
	if r.err != nil {
		return r.err
	}
	for _, m := range matches {
		m.Unmatched -= r.ahead
		if m.Unmatched < 0 {
			r.err = errors.Errorf("unpack: match %+v overlaps %d literals already encoded", m, r.ahead)
			return r.err
		}
		r.ahead = 0
		if err := r.addLiterals(m.Unmatched); err != nil {
			return err
		}
		if m.Length > 0 {
			if err := r.addMatch(m); err != nil {
				return err
			}
		}
	}

	// Whatever is left can only be literals.
	n := len(r.data) - r.blockLen
	if n < 0 {
		return r.overrun()
	}
	if err := r.addLiterals(n); err != nil {
		return err
	}
	r.ahead += n
	return nil
}

func (r *Recoder) addLiterals(n int) error {
	size := r.blockSize()
	for n > 0 {
		k := size - r.blockLen
		if k > n {
			k = n
		}
		r.lits += k
		r.blockLen += k
		n -= k
		if r.blockLen == size {
			if err := r.emit(false); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Recoder) addMatch(m Match) error {
	if r.blockLen+m.Length > r.blockSize() {
		if err := r.emit(false); err != nil {
			return err
		}
	}

	usable := m.Length >= r.MinLength &&
		(r.MaxDistance == 0 || m.Distance <= r.MaxDistance) &&
		(!r.Independent || m.Distance <= r.blockLen)
	if usable {
		r.block = append(r.block, Match{
			Unmatched: r.lits,
			Length:    m.Length,
			Distance:  m.Distance,
		})
		r.lits = 0
	} else {
		r.lits += m.Length
	}
	r.blockLen += m.Length
	return nil
}

// emit encodes the current block and writes it to Dest.
func (r *Recoder) emit(last bool) error {
	if r.blockLen > len(r.data) {
		return r.overrun()
	}

	r.out = r.out[:0]
	if !r.wroteHeader {
		r.out = r.Encoder.Header(r.out)
		r.wroteHeader = true
	}
	matches := r.block
	if r.lits > 0 {
		matches = append(matches, Match{Unmatched: r.lits})
	}
	r.out = r.Encoder.Encode(r.out, r.data[:r.blockLen], matches, last)

	if _, err := r.Dest.Write(r.out); err != nil {
		r.err = errors.Wrap(err, "unpack: writing recoded block")
		return r.err
	}

	r.data = append(r.data[:0], r.data[r.blockLen:]...)
	r.block = r.block[:0]
	r.blockLen = 0
	r.lits = 0
	return nil
}

func (r *Recoder) overrun() error {
	r.err = errors.Errorf("unpack: matches cover %d bytes, but only %d have been written", r.blockLen, len(r.data))
	return r.err
}

// Close encodes the remaining data as the last block. It does not close
// Dest.
func (r *Recoder) Close() error {
	if r.closed {
		return r.err
	}
	if r.err != nil {
		return r.err
	}
	if err := r.AddMatches(nil); err != nil {
		return err
	}
	r.closed = true
	return r.emit(true)
}

// Reset prepares r to recode a new stream to dst.
func (r *Recoder) Reset(dst io.Writer) {
	r.Dest = dst
	r.Encoder.Reset()
	r.data = r.data[:0]
	r.block = r.block[:0]
	r.blockLen = 0
	r.lits = 0
	r.ahead = 0
	r.wroteHeader = false
	r.closed = false
	r.err = nil
}
