// Package snappy writes the snappy framing format from the matches recorded
// while decoding another LZ77 format.
package snappy

import (
	"hash/crc32"
	"io"

	"github.com/andybalholm/unpack"
)

const (
	// MaxBlockSize is the most uncompressed data a chunk can hold.
	MaxBlockSize = 65536

	// MinMatch is the shortest match worth writing as a copy.
	MinMatch = 4

	chunkCompressed   = 0x00
	chunkUncompressed = 0x01
)

// An Encoder implements the unpack.Encoder interface, writing snappy framed
// data. Each block becomes one chunk, so blocks must not be larger than
// MaxBlockSize, and matches must not reach back into earlier blocks.
type Encoder struct{}

var magicChunk = []byte("\xff\x06\x00\x00sNaPpY")

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// crc implements the checksum specified in section 3 of
// https://github.com/google/snappy/blob/master/framing_format.txt
func crc(b []byte) uint32 {
	c := crc32.Update(0, crcTable, b)
	return (c>>15 | c<<17) + 0xa282ead8
}

func (Encoder) Reset() {}

func (Encoder) Header(dst []byte) []byte {
	return append(dst, magicChunk...)
}

func (Encoder) Encode(dst []byte, src []byte, matches []unpack.Match, lastBlock bool) []byte {
	if len(src) > MaxBlockSize {
		panic("snappy: block too large")
	}
	if len(src) == 0 {
		return dst
	}

	start := len(dst)
	checksum := crc(src)
	dst = append(dst,
		chunkCompressed,
		0, 0, 0, // chunk length, filled in below
		byte(checksum), byte(checksum>>8), byte(checksum>>16), byte(checksum>>24),
	)
	dataStart := len(dst)

	dst = appendUvarint(dst, uint64(len(src)))
	pos := 0
	for _, m := range matches {
		if m.Unmatched > 0 {
			dst = appendLiteral(dst, src[pos:pos+m.Unmatched])
			pos += m.Unmatched
		}
		if m.Length > 0 {
			if m.Distance > pos {
				panic("snappy: match reaches before the start of the block")
			}
			dst = appendCopy(dst, m.Length, m.Distance)
			pos += m.Length
		}
	}
	if pos < len(src) {
		dst = appendLiteral(dst, src[pos:])
	}

	dataLen := len(dst) - dataStart
	if dataLen >= len(src)-len(src)/8 {
		// Not worth it; store the chunk uncompressed.
		dst = append(dst[:dataStart], src...)
		dst[start] = chunkUncompressed
		dataLen = len(src)
	}

	chunkLen := dataLen + 4
	dst[start+1] = byte(chunkLen)
	dst[start+2] = byte(chunkLen >> 8)
	dst[start+3] = byte(chunkLen >> 16)
	return dst
}

// NewRecoder returns a Recoder that writes snappy framed data to dst.
func NewRecoder(dst io.Writer) *unpack.Recoder {
	return &unpack.Recoder{
		Dest:        dst,
		Encoder:     Encoder{},
		BlockSize:   MaxBlockSize,
		MinLength:   MinMatch,
		Independent: true,
	}
}
