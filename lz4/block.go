package lz4

import (
	"encoding/binary"

	"github.com/andybalholm/unpack"
)

const (
	// MinMatch is the shortest match LZ4 can represent.
	MinMatch = 4

	// MaxDistance is the longest distance LZ4 can represent.
	MaxDistance = 65535

	// The last match in a block must start at least 12 bytes before the
	// end, and the last 5 bytes are always literals.
	lastMatchMargin = 12
	lastLiterals    = 5
)

// A BlockEncoder implements the unpack.Encoder interface, writing in the LZ4
// block format. It has no stream header.
type BlockEncoder struct{}

func (BlockEncoder) Header(dst []byte) []byte { return dst }

func (BlockEncoder) Reset() {}

func (BlockEncoder) Encode(dst []byte, src []byte, matches []unpack.Match, lastBlock bool) []byte {
	matches, trailing := trimTail(matches)

	pos := 0
	for _, m := range matches {
		dst = appendSequence(dst, src[pos:pos+m.Unmatched], m.Length, m.Distance)
		pos += m.Unmatched + m.Length
	}
	if trailing != len(src)-pos {
		panic("lz4: matches don't cover the block")
	}
	return appendSequence(dst, src[pos:], 0, 0)
}

// trimTail drops matches from the end until the end-of-block rules are met,
// and returns the number of bytes that will be written as the final
// literal run.
func trimTail(matches []unpack.Match) ([]unpack.Match, int) {
	trailing := 0
	for len(matches) > 0 {
		last := matches[len(matches)-1]
		if trailing >= lastLiterals && trailing+last.Length >= lastMatchMargin {
			break
		}
		trailing += last.Unmatched + last.Length
		matches = matches[:len(matches)-1]
	}
	return matches, trailing
}

// appendSequence appends a literal run followed by a match. A length of 0
// means the sequence is the last one in the block, with no match.
func appendSequence(dst []byte, lits []byte, length, distance int) []byte {
	var token byte
	if len(lits) >= 15 {
		token = 0xf0
	} else {
		token = byte(len(lits)) << 4
	}
	if length > 0 {
		if ml := length - MinMatch; ml >= 15 {
			token |= 0x0f
		} else {
			token |= byte(ml)
		}
	}
	dst = append(dst, token)

	if len(lits) >= 15 {
		dst = appendInt(dst, len(lits)-15)
	}
	dst = append(dst, lits...)
	if length == 0 {
		return dst
	}

	dst = binary.LittleEndian.AppendUint16(dst, uint16(distance))
	if ml := length - MinMatch; ml >= 15 {
		dst = appendInt(dst, ml-15)
	}
	return dst
}

// appendInt appends n to dst in LZ4's variable-length integer format.
func appendInt(dst []byte, n int) []byte {
	for n >= 255 {
		dst = append(dst, 255)
		n -= 255
	}
	return append(dst, byte(n))
}
