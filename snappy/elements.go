package snappy

const (
	tagLiteral = 0x00
	tagCopy1   = 0x01
	tagCopy2   = 0x02
)

func appendLiteral(dst, lit []byte) []byte {
	for len(lit) > 0 {
		chunk := lit
		if len(chunk) > 1<<16 {
			chunk = chunk[:1<<16]
		}
		lit = lit[len(chunk):]

		switch n := len(chunk) - 1; {
		case n < 60:
			dst = append(dst, byte(n)<<2|tagLiteral)
		case n < 1<<8:
			dst = append(dst, 60<<2|tagLiteral, byte(n))
		default:
			dst = append(dst, 61<<2|tagLiteral, byte(n), byte(n>>8))
		}
		dst = append(dst, chunk...)
	}
	return dst
}

// appendCopy appends a copy of length bytes from offset bytes back. A copy
// longer than 64 bytes is split into several. tagCopy1 is used where it fits
// (length 4 to 11, offset below 2048); it is 2 bytes long, tagCopy2 3 bytes.
func appendCopy(dst []byte, length, offset int) []byte {
	// Split so that the remainder is at least 4 bytes and can use tagCopy1.
	for length >= 68 {
		dst = append(dst, 63<<2|tagCopy2, byte(offset), byte(offset>>8))
		length -= 64
	}
	if length > 64 {
		dst = append(dst, 59<<2|tagCopy2, byte(offset), byte(offset>>8))
		length -= 60
	}
	if length < 4 || length >= 12 || offset >= 2048 {
		return append(dst, byte(length-1)<<2|tagCopy2, byte(offset), byte(offset>>8))
	}
	return append(dst, byte(offset>>8)<<5|byte(length-4)<<2|tagCopy1, byte(offset))
}

// appendUvarint appends x to dst in varint format.
func appendUvarint(dst []byte, x uint64) []byte {
	for x >= 0x80 {
		dst = append(dst, byte(x)|0x80)
		x >>= 7
	}
	return append(dst, byte(x))
}
