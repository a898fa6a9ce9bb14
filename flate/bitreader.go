package flate

// A bitReader reads DEFLATE's least-significant-bit-first bit groups from a
// buffered byte slice. It refills one byte at a time, so it never holds more
// than 32 bits and never pulls a byte before it is needed.
//
// The struct is small and contains no pointers except the input slice, so a
// copy of it is a complete checkpoint of the read position.
type bitReader struct {
	in    []byte
	pos   int    // next byte of in
	bits  uint32 // pending bits, next bit in the lowest position
	nbits uint   // number of valid bits in bits
}

// getBits returns the next n bits, with the first bit in the lowest
// position. n must be at most 25.
func (br *bitReader) getBits(n uint) (uint32, error) {
	for br.nbits < n {
		if br.pos >= len(br.in) {
			return 0, ErrInputExhausted
		}
		br.bits |= uint32(br.in[br.pos]) << br.nbits
		br.pos++
		br.nbits += 8
	}
	v := br.bits & (1<<n - 1)
	br.bits >>= n
	br.nbits -= n
	return v, nil
}

// alignToByte discards the bits remaining in a partially-read byte. Whole
// bytes still held in the accumulator are given back to the input, so that
// after alignToByte the accumulator is empty and pos is the next byte.
func (br *bitReader) alignToByte() {
	br.pos -= int(br.nbits >> 3)
	br.bits = 0
	br.nbits = 0
}

// readBytes returns up to max bytes of input, without copying. The caller
// must call alignToByte first. It returns ErrInputExhausted if max > 0 and
// no input is buffered.
func (br *bitReader) readBytes(max int) ([]byte, error) {
	n := len(br.in) - br.pos
	if n == 0 && max > 0 {
		return nil, ErrInputExhausted
	}
	if n > max {
		n = max
	}
	b := br.in[br.pos : br.pos+n]
	br.pos += n
	return b, nil
}

// buffered returns the number of unread input bytes, not counting bits in
// the accumulator.
func (br *bitReader) buffered() int {
	return len(br.in) - br.pos
}
