// Package transcode decompresses a DEFLATE stream, optionally wrapped in a
// gzip or zlib container, and writes the result in another format.
package transcode

import (
	"bufio"
	"io"
	"time"

	"github.com/pierrec/xxHash/xxHash32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/andybalholm/unpack/flate"
)

const DefaultBufferSize = 32 * 1024

type Options struct {
	Container Container
	Format    Format

	// Level is the compression level for the output format; 0 means the
	// format's default.
	Level int

	// KeepMatches makes the snappy and lz4 formats reuse the matches from
	// the DEFLATE stream instead of searching for new ones.
	KeepMatches bool

	// Unescaped writes literals in FormatText as they are, instead of
	// escaping control characters and '<'.
	Unescaped bool

	// BufferSize is how much compressed input is read at a time.
	BufferSize int

	Log *logrus.Entry
}

// Stats describes a completed Run.
type Stats struct {
	Container Container // the container found, if Options.Container was auto

	HeaderBytes int64 // bytes of container header
	InputBytes  int64 // bytes of DEFLATE data
	Blocks      int
	OutputBytes int64 // decompressed bytes

	// Checksum is the xxHash32 (seed 0) of the decompressed data.
	Checksum uint32

	// EncodedBytes is the number of bytes written to dst.
	EncodedBytes int64

	Duration time.Duration
}

// Run decompresses src and writes it to dst in the output format.
// Container trailers are not checked, and anything after the end of the
// DEFLATE stream is ignored.
func Run(dst io.Writer, src io.Reader, opts Options) (*Stats, error) {
	start := time.Now()
	log := opts.Log
	if log == nil {
		log = logrus.WithField("pkg", "transcode")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}

	in := &countingReader{r: bufio.NewReaderSize(src, opts.BufferSize)}
	container, err := readHeader(in, opts.Container, log)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read container header")
	}
	stats := &Stats{
		Container:   container,
		HeaderBytes: in.n,
	}

	encoded := &countingWriter{w: dst}
	out, err := newOutput(encoded, opts)
	if err != nil {
		return nil, errors.Wrap(err, "unable to set up output")
	}
	log.WithFields(logrus.Fields{
		"container": container,
		"format":    opts.Format,
		"level":     opts.Level,
	}).Debug("decoding")

	hasher := xxHash32.New(0)
	d := flate.NewDecoder()
	d.RecordMatches = out.recoder != nil
	p := &pump{
		d:   d,
		src: in,
		dst: io.MultiWriter(out, hasher),
		buf: make([]byte, opts.BufferSize),
	}
	if out.recoder != nil {
		p.afterDecode = func() error {
			err := out.recoder.AddMatches(d.Matches())
			d.ClearMatches()
			return err
		}
	}

	if err := p.run(); err != nil {
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, errors.Wrapf(err, "unable to finish %s output", opts.Format)
	}

	stats.InputBytes = d.InputOffset()
	stats.Blocks = d.Blocks()
	stats.OutputBytes = d.OutputOffset()
	stats.Checksum = hasher.Sum32()
	stats.EncodedBytes = encoded.n
	stats.Duration = time.Since(start)

	log.WithFields(logrus.Fields{
		"input_bytes":  stats.InputBytes,
		"output_bytes": stats.OutputBytes,
		"blocks":       stats.Blocks,
	}).Debug("done")
	return stats, nil
}

// Text decompresses src and writes a representation of its LZ77 structure
// to dst, with matches shown as <length,distance>.
func Text(dst io.Writer, src io.Reader, opts Options) (*Stats, error) {
	opts.Format = FormatText
	return Run(dst, src, opts)
}

// readHeader reads the container header, if any, working out which
// container it is first for ContainerAuto.
func readHeader(in *countingReader, c Container, log *logrus.Entry) (Container, error) {
	if c == ContainerAuto {
		var err error
		if c, err = sniff(in.r); err != nil {
			return c, err
		}
		log.Debugf("detected %s container", c)
	}

	switch c {
	case ContainerRaw, "":
		return ContainerRaw, nil
	case ContainerGZIP:
		h, err := flate.ReadGZIPHeader(in)
		if err != nil {
			return c, err
		}
		log.WithFields(logrus.Fields{
			"name":    h.Name,
			"comment": h.Comment,
			"mtime":   h.ModTime,
			"os":      h.OS,
		}).Debug("gzip header")
		return c, nil
	case ContainerZlib:
		h, err := flate.ReadZlibHeader(in)
		if err != nil {
			return c, err
		}
		log.WithFields(logrus.Fields{
			"window_size": h.WindowSize,
			"level":       h.Level,
		}).Debug("zlib header")
		return c, nil
	}
	return c, errors.Errorf("unknown container %q", c)
}

// sniff looks at the start of the stream to see what container it is in.
// Raw DEFLATE streams can't be told apart from garbage, so that is the
// fallback.
func sniff(r *bufio.Reader) (Container, error) {
	b, err := r.Peek(2)
	if err != nil && err != io.EOF {
		return ContainerRaw, errors.Wrap(err, "unable to read start of stream")
	}
	switch {
	case len(b) == 2 && b[0] == 0x1f && b[1] == 0x8b:
		return ContainerGZIP, nil
	case flate.IsZlibHeader(b):
		return ContainerZlib, nil
	}
	return ContainerRaw, nil
}

// pump feeds d from src until the end of the stream.
type pump struct {
	d   *flate.Decoder
	src io.Reader
	dst io.Writer
	buf []byte

	// afterDecode is called after each call to Decode, when the output has
	// been written to dst.
	afterDecode func() error
}

const maxEmptyReads = 100

func (p *pump) run() error {
	emptyReads := 0
	for {
		err := p.d.Decode(p.dst)
		if p.afterDecode != nil {
			if err := p.afterDecode(); err != nil {
				return errors.Wrap(err, "unable to recode output")
			}
		}
		switch {
		case err == nil:
			return nil
		case err != flate.ErrInputExhausted:
			return err
		}

		n, err := p.src.Read(p.buf)
		if n > 0 {
			p.d.Feed(p.buf[:n])
			emptyReads = 0
			continue
		}
		switch {
		case err == io.EOF:
			return errors.Wrapf(io.ErrUnexpectedEOF, "stream ends after %d bytes of input", p.d.InputOffset())
		case err != nil:
			return errors.Wrap(err, "unable to read input")
		}
		emptyReads++
		if emptyReads >= maxEmptyReads {
			return io.ErrNoProgress
		}
	}
}

type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
