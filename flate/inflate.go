// Package flate implements a decoder for the DEFLATE compressed data format,
// described in RFC 1951.
//
// The Decoder is resumable: when it runs out of input it returns
// ErrInputExhausted, keeping its state, and continues where it stopped once
// more input is fed to it.
package flate

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/andybalholm/unpack"
)

type state uint8

const (
	stateBlockHeader state = iota
	stateStored
	stateHuffman
	stateDone
)

// A Decoder decodes a single DEFLATE stream.
type Decoder struct {
	// RecordMatches makes the decoder keep a record of the literals and
	// matches it decodes, available from Matches.
	RecordMatches bool

	br  bitReader
	win *unpack.Window

	state  state
	final  bool // the current block is the last one
	stored int  // bytes left in the current stored block
	blocks int  // blocks started so far

	// Tables for the current compressed block; either the fixed tables or
	// the ones in dyn.
	lit, dist *huffmanTable
	dyn       dynamicHeader

	discarded int64 // input bytes dropped from br.in by Feed
	err       error

	matches   []unpack.Match
	unmatched int
}

var _ unpack.Decoder = (*Decoder)(nil)

// NewDecoder returns a Decoder ready to decode a new stream.
func NewDecoder() *Decoder {
	return &Decoder{
		win: unpack.NewWindow(unpack.WindowSize),
	}
}

func (d *Decoder) Reset() {
	in := d.br.in[:0]
	matches := d.matches[:0]
	win := d.win
	win.Reset()
	*d = Decoder{
		RecordMatches: d.RecordMatches,
		br:            bitReader{in: in},
		win:           win,
		dyn:           d.dyn,
		matches:       matches,
	}
}

// Feed appends p to the pending input.
func (d *Decoder) Feed(p []byte) {
	if d.br.pos > 0 {
		n := copy(d.br.in, d.br.in[d.br.pos:])
		d.br.in = d.br.in[:n]
		d.discarded += int64(d.br.pos)
		d.br.pos = 0
	}
	d.br.in = append(d.br.in, p...)
}

// Done reports whether the final block has been decoded.
func (d *Decoder) Done() bool {
	return d.state == stateDone
}

// Remaining returns the input that follows the end of the stream (such as a
// gzip trailer). It is only meaningful once Done returns true.
func (d *Decoder) Remaining() []byte {
	return d.br.in[d.br.pos:]
}

// InputOffset returns the number of input bytes consumed so far.
func (d *Decoder) InputOffset() int64 {
	return d.discarded + int64(d.br.pos)
}

// OutputOffset returns the number of bytes decoded so far.
func (d *Decoder) OutputOffset() int64 {
	return d.win.Total()
}

// Blocks returns the number of blocks started so far.
func (d *Decoder) Blocks() int {
	return d.blocks
}

// Matches returns the literals and matches decoded so far, if RecordMatches
// is set. The final entry for trailing literals is added when the stream
// ends.
func (d *Decoder) Matches() []unpack.Match {
	return d.matches
}

// ClearMatches empties the record of matches, so that a caller consuming
// them as decoding goes on can keep it short. Literals that follow the last
// match are still counted in the next one.
func (d *Decoder) ClearMatches() {
	d.matches = d.matches[:0]
}

// Decode decodes as much of the pending input as possible, writing the output
// to dst. It returns nil once the end of the final block has been decoded,
// and ErrInputExhausted if it needs more input first. Any other error is
// permanent.
func (d *Decoder) Decode(dst io.Writer) error {
	if d.err != nil {
		return d.err
	}

	for d.state != stateDone {
		if d.win.Available() < maxMatchLength {
			if err := d.flush(dst); err != nil {
				return err
			}
		}

		mark := d.br
		var err error
		switch d.state {
		case stateBlockHeader:
			err = d.readBlock()
		case stateStored:
			err = d.copyStored()
		case stateHuffman:
			err = d.decodeSymbol()
		}
		if err == nil {
			continue
		}

		if err == ErrInputExhausted {
			// Nothing from the interrupted step has reached the window, so
			// rewinding the input is all it takes to retry it later.
			d.br = mark
			if err := d.flush(dst); err != nil {
				return err
			}
			return ErrInputExhausted
		}

		d.err = errors.Wrapf(err, "flate: corrupt input before offset %d", d.InputOffset())
		d.br = mark
		// Hand over what was decoded before the corruption; the corrupt input
		// error takes precedence over a write error here.
		_ = d.win.Flush(dst)
		return d.err
	}

	return d.flush(dst)
}

func (d *Decoder) flush(dst io.Writer) error {
	if err := d.win.Flush(dst); err != nil {
		d.err = errors.Wrap(err, "flate: write error")
		return d.err
	}
	return nil
}

func (d *Decoder) endBlock() {
	if !d.final {
		d.state = stateBlockHeader
		return
	}
	d.state = stateDone
	if d.RecordMatches && d.unmatched > 0 {
		d.matches = append(d.matches, unpack.Match{Unmatched: d.unmatched})
		d.unmatched = 0
	}
}

// decodeSymbol decodes one literal, end-of-block code, or length/distance
// pair.
func (d *Decoder) decodeSymbol() error {
	sym, err := d.lit.decode(&d.br)
	if err != nil {
		return err
	}

	switch {
	case sym < endOfBlock:
		d.win.WriteByte(byte(sym))
		d.unmatched++
		return nil
	case sym == endOfBlock:
		d.endBlock()
		return nil
	}

	m, err := d.readMatch(sym)
	if err != nil {
		return err
	}
	if err := d.win.Copy(m.Distance, m.Length); err != nil {
		return err
	}
	if d.RecordMatches {
		m.Unmatched = d.unmatched
		d.matches = append(d.matches, m)
	}
	d.unmatched = 0
	return nil
}

// readMatch reads the rest of a match, given its length symbol.
func (d *Decoder) readMatch(sym int) (unpack.Match, error) {
	if sym >= maxNumLit {
		return unpack.Match{}, ErrInvalidSymbol
	}
	sym -= endOfBlock + 1
	length := int(lengthBase[sym])
	if nb := lengthExtra[sym]; nb > 0 {
		x, err := d.br.getBits(uint(nb))
		if err != nil {
			return unpack.Match{}, err
		}
		length += int(x)
	}

	dsym, err := d.dist.decode(&d.br)
	if err != nil {
		return unpack.Match{}, err
	}
	if dsym >= maxNumDist {
		return unpack.Match{}, ErrInvalidSymbol
	}
	distance := int(distBase[dsym])
	if nb := distExtra[dsym]; nb > 0 {
		x, err := d.br.getBits(uint(nb))
		if err != nil {
			return unpack.Match{}, err
		}
		distance += int(x)
	}

	return unpack.Match{Length: length, Distance: distance}, nil
}

// Inflate decodes a complete DEFLATE stream. Any data after the end of the
// stream is ignored. If src ends before the stream does, Inflate returns
// the data decoded so far and io.ErrUnexpectedEOF.
func Inflate(src []byte) ([]byte, error) {
	d := NewDecoder()
	d.br.in = src
	var out bytes.Buffer
	err := d.Decode(&out)
	if err == ErrInputExhausted {
		err = io.ErrUnexpectedEOF
	}
	return out.Bytes(), err
}
