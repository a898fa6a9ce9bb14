package flate

import "math/bits"

// bitWriter builds hand-made DEFLATE streams for the tests.
type bitWriter struct {
	dst   []byte
	bits  uint64
	nbits uint
}

// writeBits writes the low nb bits of v, least significant first.
func (w *bitWriter) writeBits(nb uint, v uint64) {
	w.bits |= v << w.nbits
	w.nbits += nb
	for w.nbits >= 8 {
		w.dst = append(w.dst, byte(w.bits))
		w.bits >>= 8
		w.nbits -= 8
	}
}

// writeCode writes an nb-bit Huffman code, most significant bit first.
func (w *bitWriter) writeCode(nb uint, code uint16) {
	w.writeBits(nb, uint64(bits.Reverse16(code)>>(16-nb)))
}

// jumpToByteBoundary pads the last partial byte with zeros.
func (w *bitWriter) jumpToByteBoundary() {
	if w.nbits > 0 {
		w.writeBits(8-w.nbits, 0)
	}
}

func (w *bitWriter) bytes() []byte {
	w.jumpToByteBoundary()
	return w.dst
}

func (w *bitWriter) blockHeader(final bool, typ blockType) {
	v := uint64(typ) << 1
	if final {
		v |= 1
	}
	w.writeBits(3, v)
}

// fixedLiteral writes literal/length symbol sym with the fixed code.
func (w *bitWriter) fixedLiteral(sym int) {
	switch {
	case sym < 144:
		w.writeCode(8, uint16(0x30+sym))
	case sym < 256:
		w.writeCode(9, uint16(0x190+sym-144))
	case sym < 280:
		w.writeCode(7, uint16(sym-256))
	default:
		w.writeCode(8, uint16(0xc0+sym-280))
	}
}

// fixedMatch writes a length/distance pair with the fixed codes.
func (w *bitWriter) fixedMatch(length, distance int) {
	ls := lengthSymbol(length)
	w.fixedLiteral(ls + 257)
	w.writeBits(uint(lengthExtra[ls]), uint64(length-int(lengthBase[ls])))
	ds := distanceSymbol(distance)
	w.writeCode(5, uint16(ds))
	w.writeBits(uint(distExtra[ds]), uint64(distance-int(distBase[ds])))
}

func lengthSymbol(length int) int {
	if length == maxMatchLength {
		return len(lengthBase) - 1
	}
	for i := len(lengthBase) - 2; i >= 0; i-- {
		if int(lengthBase[i]) <= length {
			return i
		}
	}
	panic("length too short")
}

func distanceSymbol(distance int) int {
	for i := len(distBase) - 1; i >= 0; i-- {
		if int(distBase[i]) <= distance {
			return i
		}
	}
	panic("distance too short")
}

// canonicalCodes assigns canonical Huffman codes to the given lengths.
func canonicalCodes(lengths []uint8) []uint16 {
	var count [maxCodeBits + 1]uint16
	for _, l := range lengths {
		if l > 0 {
			count[l]++
		}
	}
	var next [maxCodeBits + 2]uint16
	code := uint16(0)
	for l := 1; l <= maxCodeBits; l++ {
		code = (code + count[l-1]) << 1
		next[l] = code
	}
	codes := make([]uint16, len(lengths))
	for i, l := range lengths {
		if l > 0 {
			codes[i] = next[l]
			next[l]++
		}
	}
	return codes
}

// A dynamicBlock writes a dynamic block with the given code lengths. The
// code length code gives all the symbols 0..15 4-bit codes, so the lengths
// are written one by one, without repeats.
type dynamicBlock struct {
	lit, dist           []uint8
	litCodes, distCodes []uint16
}

func newDynamicBlock(lit, dist []uint8) *dynamicBlock {
	return &dynamicBlock{
		lit:       lit,
		dist:      dist,
		litCodes:  canonicalCodes(lit),
		distCodes: canonicalCodes(dist),
	}
}

func (b *dynamicBlock) writeHeader(w *bitWriter, final bool) {
	w.blockHeader(final, blockDynamic)
	w.writeBits(5, uint64(len(b.lit)-257))
	w.writeBits(5, uint64(len(b.dist)-1))
	w.writeBits(4, numCodeLengths-4)
	for _, sym := range codeLengthOrder {
		if sym < 16 {
			w.writeBits(3, 4)
		} else {
			w.writeBits(3, 0)
		}
	}
	for _, l := range b.lit {
		w.writeCode(4, uint16(l))
	}
	for _, l := range b.dist {
		w.writeCode(4, uint16(l))
	}
}

func (b *dynamicBlock) literal(w *bitWriter, sym int) {
	w.writeCode(uint(b.lit[sym]), b.litCodes[sym])
}

func (b *dynamicBlock) distance(w *bitWriter, sym int) {
	w.writeCode(uint(b.dist[sym]), b.distCodes[sym])
}
