package flate

import "sync"

// maxCodeBits is the longest Huffman code DEFLATE allows.
const maxCodeBits = 15

// A huffmanTable decodes a canonical Huffman code.
//
// Canonical codes are assigned in order of increasing length, and within one
// length in order of increasing symbol value. So the table only needs the
// number of codes of each length and the symbols in assignment order; decode
// walks the lengths, keeping track of the first code of the current length.
type huffmanTable struct {
	count  [maxCodeBits + 1]uint16 // number of codes of each length
	symbol []uint16                // symbols ordered by (length, value)
	maxLen int                     // longest length in use; 0 for an empty table
}

// newHuffmanTable builds a table from the code length of each symbol.
// A length of 0 means the symbol is not used.
//
// The lengths must form a complete code, with two exceptions: a table with
// no symbols at all, which can only fail to decode, and a table with a
// single code of length 1, which is what encoders write when only one
// distance code is used.
func newHuffmanTable(lengths []uint8) (*huffmanTable, error) {
	h := new(huffmanTable)
	if err := h.init(lengths); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *huffmanTable) init(lengths []uint8) error {
	h.count = [maxCodeBits + 1]uint16{}
	h.maxLen = 0

	n := 0
	for _, l := range lengths {
		if l > maxCodeBits {
			return ErrInvalidHuffmanTable
		}
		if l == 0 {
			continue
		}
		h.count[l]++
		n++
		if int(l) > h.maxLen {
			h.maxLen = int(l)
		}
	}

	if cap(h.symbol) < n {
		h.symbol = make([]uint16, n)
	}
	h.symbol = h.symbol[:n]
	if n == 0 {
		return nil
	}

	// Check that no length runs out of code space, and count how many codes
	// are left over at the end.
	left := 1
	for l := 1; l <= maxCodeBits; l++ {
		left <<= 1
		left -= int(h.count[l])
		if left < 0 {
			return ErrInvalidHuffmanTable
		}
	}
	if left > 0 && !(n == 1 && h.maxLen == 1) {
		return ErrInvalidHuffmanTable
	}

	var offs [maxCodeBits + 2]int
	for l := 1; l <= maxCodeBits; l++ {
		offs[l+1] = offs[l] + int(h.count[l])
	}
	for sym, l := range lengths {
		if l != 0 {
			h.symbol[offs[l]] = uint16(sym)
			offs[l]++
		}
	}
	return nil
}

// decode reads one code from br and returns its symbol.
func (h *huffmanTable) decode(br *bitReader) (int, error) {
	code := 0  // bits read so far, first bit most significant
	first := 0 // first code of the current length
	index := 0 // index in symbol of the first code of the current length
	for l := 1; l <= h.maxLen; l++ {
		b, err := br.getBits(1)
		if err != nil {
			return 0, err
		}
		code |= int(b)
		count := int(h.count[l])
		if code-first < count {
			return int(h.symbol[index+code-first]), nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, ErrRanOutOfCodes
}

// The fixed tables are built once, on first use, and never modified.
var (
	fixedOnce     sync.Once
	fixedLiterals *huffmanTable
	fixedDistance *huffmanTable
)

func fixedTables() (lit, dist *huffmanTable) {
	fixedOnce.Do(func() {
		// RFC 1951, section 3.2.6.
		var lengths [288]uint8
		for i := range lengths {
			switch {
			case i < 144:
				lengths[i] = 8
			case i < 256:
				lengths[i] = 9
			case i < 280:
				lengths[i] = 7
			default:
				lengths[i] = 8
			}
		}
		var err error
		fixedLiterals, err = newHuffmanTable(lengths[:])
		if err != nil {
			panic(err)
		}

		// Distance codes 30 and 31 are part of the code space but never
		// valid in a stream; including them keeps the code complete.
		var distLengths [32]uint8
		for i := range distLengths {
			distLengths[i] = 5
		}
		fixedDistance, err = newHuffmanTable(distLengths[:])
		if err != nil {
			panic(err)
		}
	})
	return fixedLiterals, fixedDistance
}
