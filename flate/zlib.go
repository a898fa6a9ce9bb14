package flate

import (
	"io"

	"github.com/pkg/errors"

	"github.com/andybalholm/unpack"
)

// A ZlibHeader holds the fields of a zlib stream header (RFC 1950).
type ZlibHeader struct {
	WindowSize int // the window size the compressor used
	Level      int // FLEVEL: 0 (fastest) to 3 (maximum compression)
}

// ReadZlibHeader reads the 2-byte zlib header from r. Streams that need a
// preset dictionary are rejected.
func ReadZlibHeader(r io.Reader) (ZlibHeader, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return ZlibHeader{}, errors.Wrap(err, "flate: reading zlib header")
	}
	return parseZlibHeader(buf[0], buf[1])
}

func parseZlibHeader(cmf, flg byte) (ZlibHeader, error) {
	if cmf&0x0f != gzipDeflate {
		return ZlibHeader{}, errors.Wrapf(ErrHeader, "unsupported zlib compression method %d", cmf&0x0f)
	}
	cinfo := cmf >> 4
	if cinfo > 7 {
		return ZlibHeader{}, errors.Wrapf(ErrHeader, "zlib window size 2^%d too large", cinfo+8)
	}
	if (uint16(cmf)<<8|uint16(flg))%31 != 0 {
		return ZlibHeader{}, errors.Wrap(ErrHeader, "zlib header check failed")
	}
	if flg&0x20 != 0 {
		return ZlibHeader{}, errors.Wrap(ErrHeader, "zlib preset dictionaries are not supported")
	}
	return ZlibHeader{
		WindowSize: 1 << (cinfo + 8),
		Level:      int(flg >> 6),
	}, nil
}

// IsZlibHeader reports whether b starts with a valid zlib header.
func IsZlibHeader(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	_, err := parseZlibHeader(b[0], b[1])
	return err == nil
}

// NewZlibReader reads the zlib header from r and returns a Reader for the
// DEFLATE stream that follows it. The Adler-32 trailer is not read or
// checked.
func NewZlibReader(r io.Reader) (*unpack.Reader, ZlibHeader, error) {
	br := asByteReader(r)
	h, err := ReadZlibHeader(br)
	if err != nil {
		return nil, h, err
	}
	return NewReader(br), h, nil
}
