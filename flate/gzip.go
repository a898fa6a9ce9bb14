package flate

import (
	"bufio"
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/andybalholm/unpack"
)

// ByteReader is the kind of reader the header readers need, so that they
// don't read past the end of the header.
type ByteReader interface {
	io.Reader
	io.ByteReader
}

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8

	flagText    = 1 << 0
	flagHdrCrc  = 1 << 1
	flagExtra   = 1 << 2
	flagName    = 1 << 3
	flagComment = 1 << 4
)

// A GZIPHeader holds the fields of a gzip member header (RFC 1952) that
// precede the DEFLATE data.
type GZIPHeader struct {
	Text    bool
	ModTime time.Time
	Extra   []byte
	Name    string
	Comment string
	OS      byte
}

// ReadGZIPHeader reads a gzip member header from r, leaving r positioned at
// the start of the DEFLATE stream. The header CRC, if present, is skipped
// without being checked.
func ReadGZIPHeader(r ByteReader) (GZIPHeader, error) {
	var h GZIPHeader
	var buf [10]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return h, errors.Wrap(err, "flate: reading gzip header")
	}
	if buf[0] != gzipID1 || buf[1] != gzipID2 {
		return h, errors.Wrap(ErrHeader, "bad gzip magic number")
	}
	if buf[2] != gzipDeflate {
		return h, errors.Wrapf(ErrHeader, "unsupported gzip compression method %d", buf[2])
	}
	flg := buf[3]
	if flg&0xe0 != 0 {
		return h, errors.Wrapf(ErrHeader, "reserved gzip flags set (%#x)", flg)
	}
	h.Text = flg&flagText != 0
	if t := binary.LittleEndian.Uint32(buf[4:8]); t > 0 {
		h.ModTime = time.Unix(int64(t), 0)
	}
	h.OS = buf[9]

	if flg&flagExtra != 0 {
		if _, err := io.ReadFull(r, buf[:2]); err != nil {
			return h, errors.Wrap(err, "flate: reading gzip extra field")
		}
		h.Extra = make([]byte, binary.LittleEndian.Uint16(buf[:2]))
		if _, err := io.ReadFull(r, h.Extra); err != nil {
			return h, errors.Wrap(err, "flate: reading gzip extra field")
		}
	}
	var err error
	if flg&flagName != 0 {
		if h.Name, err = readLatin1String(r); err != nil {
			return h, errors.Wrap(err, "flate: reading gzip file name")
		}
	}
	if flg&flagComment != 0 {
		if h.Comment, err = readLatin1String(r); err != nil {
			return h, errors.Wrap(err, "flate: reading gzip comment")
		}
	}
	if flg&flagHdrCrc != 0 {
		if _, err := io.ReadFull(r, buf[:2]); err != nil {
			return h, errors.Wrap(err, "flate: reading gzip header CRC")
		}
	}
	return h, nil
}

// readLatin1String reads a zero-terminated ISO 8859-1 string and converts it
// to UTF-8.
func readLatin1String(r io.ByteReader) (string, error) {
	var s []rune
	for {
		c, err := r.ReadByte()
		if err == io.EOF {
			return "", io.ErrUnexpectedEOF
		}
		if err != nil {
			return "", err
		}
		if c == 0 {
			return string(s), nil
		}
		s = append(s, rune(c))
	}
}

// NewGZIPReader reads the gzip header from r and returns a Reader for the
// DEFLATE stream that follows it. The trailer is not read or checked.
func NewGZIPReader(r io.Reader) (*unpack.Reader, GZIPHeader, error) {
	br := asByteReader(r)
	h, err := ReadGZIPHeader(br)
	if err != nil {
		return nil, h, err
	}
	return NewReader(br), h, nil
}

func asByteReader(r io.Reader) ByteReader {
	if br, ok := r.(ByteReader); ok {
		return br
	}
	return bufio.NewReader(r)
}
