package unpack

import "strconv"

// A TextEncoder is an Encoder that produces a human-readable representation
// of the LZ77 structure of decoded data. The bytes that came from matches are
// replaced with <Length,Distance> symbols.
type TextEncoder struct {
	// Escape replaces control characters and bytes above 0x7e with \xNN,
	// and '<' and '\' with \x3c and \x5c, so that literal text can't be
	// mistaken for a match symbol.
	Escape bool
}

func (t TextEncoder) Header(dst []byte) []byte {
	return dst
}

func (t TextEncoder) Reset() {}

func (t TextEncoder) Encode(dst []byte, src []byte, matches []Match, lastBlock bool) []byte {
	pos := 0
	for _, m := range matches {
		if m.Unmatched > 0 {
			dst = t.appendLiterals(dst, src[pos:pos+m.Unmatched])
			pos += m.Unmatched
		}
		if m.Length > 0 {
			dst = append(dst, '<')
			dst = strconv.AppendInt(dst, int64(m.Length), 10)
			dst = append(dst, ',')
			dst = strconv.AppendInt(dst, int64(m.Distance), 10)
			dst = append(dst, '>')
			pos += m.Length
		}
	}
	if pos < len(src) {
		dst = t.appendLiterals(dst, src[pos:])
	}
	return dst
}

const hexDigits = "0123456789abcdef"

func (t TextEncoder) appendLiterals(dst []byte, lit []byte) []byte {
	if !t.Escape {
		return append(dst, lit...)
	}
	for _, c := range lit {
		switch {
		case c == '\n' || c == '\t':
			dst = append(dst, c)
		case c < 0x20 || c > 0x7e || c == '<' || c == '\\':
			dst = append(dst, '\\', 'x', hexDigits[c>>4], hexDigits[c&15])
		default:
			dst = append(dst, c)
		}
	}
	return dst
}
