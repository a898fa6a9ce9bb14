package transcode

import (
	"io"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"github.com/andybalholm/unpack"
	unlz4 "github.com/andybalholm/unpack/lz4"
	unsnappy "github.com/andybalholm/unpack/snappy"
)

// A Container is the wrapping around the DEFLATE stream.
type Container string

const (
	ContainerRaw  Container = "raw"
	ContainerZlib Container = "zlib"
	ContainerGZIP Container = "gzip"
	ContainerAuto Container = "auto"
)

// A Format is the form the decompressed data is written in.
type Format string

const (
	FormatRaw    Format = "raw"
	FormatText   Format = "text"
	FormatSnappy Format = "snappy"
	FormatBrotli Format = "brotli"
	FormatLZ4    Format = "lz4"
	FormatZstd   Format = "zstd"
)

var (
	Containers = []Container{ContainerRaw, ContainerZlib, ContainerGZIP, ContainerAuto}
	Formats    = []Format{FormatRaw, FormatText, FormatSnappy, FormatBrotli, FormatLZ4, FormatZstd}
)

// lz4Levels maps levels 1-9 to the lz4 package's compression levels.
var lz4Levels = []lz4.CompressionLevel{
	lz4.Fast,
	lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5,
	lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

// output is where the decoded data goes. If recoder is set, it needs the
// matches from the decoder too.
type output struct {
	io.WriteCloser
	recoder *unpack.Recoder
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// newOutput sets up the encoder for format, writing to dst.
func newOutput(dst io.Writer, opts Options) (output, error) {
	switch opts.Format {
	case FormatRaw, "":
		return output{WriteCloser: nopCloser{dst}}, nil

	case FormatText:
		r := &unpack.Recoder{
			Dest:    dst,
			Encoder: unpack.TextEncoder{Escape: !opts.Unescaped},
		}
		return output{WriteCloser: r, recoder: r}, nil

	case FormatSnappy:
		if opts.KeepMatches {
			r := unsnappy.NewRecoder(dst)
			return output{WriteCloser: r, recoder: r}, nil
		}
		return output{WriteCloser: snappy.NewBufferedWriter(dst)}, nil

	case FormatLZ4:
		if opts.KeepMatches {
			r := unlz4.NewRecoder(dst)
			return output{WriteCloser: r, recoder: r}, nil
		}
		if opts.Level < 0 || opts.Level >= len(lz4Levels) {
			return output{}, errors.Errorf("lz4 level must be between 0 and %d", len(lz4Levels)-1)
		}
		w := lz4.NewWriter(dst)
		if err := w.Apply(lz4.CompressionLevelOption(lz4Levels[opts.Level])); err != nil {
			return output{}, errors.Wrap(err, "unable to set lz4 level")
		}
		return output{WriteCloser: w}, nil

	case FormatBrotli:
		level := opts.Level
		if level == 0 {
			level = brotli.DefaultCompression
		}
		if level < brotli.BestSpeed || level > brotli.BestCompression {
			return output{}, errors.Errorf("brotli level must be between %d and %d", brotli.BestSpeed, brotli.BestCompression)
		}
		return output{WriteCloser: brotli.NewWriterLevel(dst, level)}, nil

	case FormatZstd:
		var zopts []zstd.EOption
		if opts.Level != 0 {
			zopts = append(zopts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(opts.Level)))
		}
		w, err := zstd.NewWriter(dst, zopts...)
		if err != nil {
			return output{}, errors.Wrap(err, "unable to create zstd writer")
		}
		return output{WriteCloser: w}, nil
	}

	return output{}, errors.Errorf("unknown output format %q", opts.Format)
}
