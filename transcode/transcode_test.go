package transcode

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/andybalholm/brotli"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pierrec/xxHash/xxHash32"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	unflate "github.com/andybalholm/unpack/flate"
)

var sample = []byte(strings.Repeat("Opticks: or, a treatise of the reflexions, refractions, inflexions and colours of light.\n", 2000))

func deflate(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, 6)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func gzipped(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Name = "opticks.txt"
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zlibbed(t *testing.T, data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

// decodeOutput undoes the output format.
func decodeOutput(t *testing.T, format Format, b []byte) []byte {
	var r io.Reader
	switch format {
	case FormatRaw:
		return b
	case FormatSnappy:
		r = snappy.NewReader(bytes.NewReader(b))
	case FormatBrotli:
		r = brotli.NewReader(bytes.NewReader(b))
	case FormatLZ4:
		r = lz4.NewReader(bytes.NewReader(b))
	case FormatZstd:
		zr, err := zstd.NewReader(bytes.NewReader(b))
		require.NoError(t, err)
		defer zr.Close()
		r = zr
	default:
		t.Fatalf("can't decode %s", format)
	}
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return out
}

func TestRunFormats(t *testing.T) {
	compressed := gzipped(t, sample)
	for _, format := range []Format{FormatRaw, FormatSnappy, FormatBrotli, FormatLZ4, FormatZstd} {
		for _, keep := range []bool{false, true} {
			var out bytes.Buffer
			stats, err := Run(&out, bytes.NewReader(compressed), Options{
				Container:   ContainerGZIP,
				Format:      format,
				KeepMatches: keep,
			})
			require.NoError(t, err, "%s, keep matches %v", format, keep)
			require.True(t, bytes.Equal(sample, decodeOutput(t, format, out.Bytes())), "%s, keep matches %v", format, keep)

			assert.Equal(t, int64(len(sample)), stats.OutputBytes)
			assert.Equal(t, xxHash32.Checksum(sample, 0), stats.Checksum)
			assert.Equal(t, int64(out.Len()), stats.EncodedBytes)
			// The 8-byte trailer isn't read.
			assert.Equal(t, int64(len(compressed)-8), stats.HeaderBytes+stats.InputBytes)
		}
	}
}

func TestRunLevels(t *testing.T) {
	compressed := deflate(t, sample)
	for _, tc := range []struct {
		format Format
		level  int
	}{
		{FormatLZ4, 1},
		{FormatLZ4, 9},
		{FormatBrotli, 1},
		{FormatBrotli, 11},
		{FormatZstd, 1},
		{FormatZstd, 19},
	} {
		var out bytes.Buffer
		_, err := Run(&out, bytes.NewReader(compressed), Options{Format: tc.format, Level: tc.level})
		require.NoError(t, err, "%s level %d", tc.format, tc.level)
		require.True(t, bytes.Equal(sample, decodeOutput(t, tc.format, out.Bytes())))
	}

	_, err := Run(io.Discard, bytes.NewReader(compressed), Options{Format: FormatLZ4, Level: 10})
	assert.Error(t, err)
	_, err = Run(io.Discard, bytes.NewReader(compressed), Options{Format: FormatBrotli, Level: 12})
	assert.Error(t, err)
	_, err = Run(io.Discard, bytes.NewReader(compressed), Options{Format: "lzma"})
	assert.Error(t, err)
}

func TestRunAutoContainer(t *testing.T) {
	data := []byte("a short stream, so that the raw version ends in its first block")
	for _, tc := range []struct {
		stream []byte
		want   Container
	}{
		{gzipped(t, data), ContainerGZIP},
		{zlibbed(t, data), ContainerZlib},
		{deflate(t, data), ContainerRaw},
	} {
		var out bytes.Buffer
		stats, err := Run(&out, bytes.NewReader(tc.stream), Options{Container: ContainerAuto})
		require.NoError(t, err, "%s", tc.want)
		assert.Equal(t, tc.want, stats.Container)
		assert.Equal(t, data, out.Bytes())
	}
}

func TestRunEmptyInput(t *testing.T) {
	_, err := Run(io.Discard, bytes.NewReader(nil), Options{Container: ContainerAuto})
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "got %v", err)
}

func TestRunWrongContainer(t *testing.T) {
	_, err := Run(io.Discard, bytes.NewReader(deflate(t, sample)), Options{Container: ContainerGZIP})
	assert.True(t, errors.Is(err, unflate.ErrHeader), "got %v", err)

	_, err = Run(io.Discard, bytes.NewReader(deflate(t, sample)), Options{Container: "bzip2"})
	assert.Error(t, err)
}

func TestRunTruncated(t *testing.T) {
	compressed := zlibbed(t, sample)
	var out bytes.Buffer
	_, err := Run(&out, bytes.NewReader(compressed[:len(compressed)/2]), Options{Container: ContainerZlib})
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "got %v", err)
	assert.True(t, bytes.HasPrefix(sample, out.Bytes()))
}

func TestRunCorrupt(t *testing.T) {
	_, err := Run(io.Discard, bytes.NewReader([]byte{0x07, 0, 0, 0}), Options{})
	assert.True(t, errors.Is(err, unflate.ErrInvalidBlockType), "got %v", err)
}

func TestRunSmallReads(t *testing.T) {
	compressed := gzipped(t, sample)
	var out bytes.Buffer
	stats, err := Run(&out, iotest.OneByteReader(bytes.NewReader(compressed)), Options{
		Container:  ContainerAuto,
		Format:     FormatLZ4,
		BufferSize: 16,
	})
	require.NoError(t, err)
	assert.Equal(t, ContainerGZIP, stats.Container)
	assert.True(t, bytes.Equal(sample, decodeOutput(t, FormatLZ4, out.Bytes())))
}

func TestText(t *testing.T) {
	// "a" then a match of 9 bytes at distance 1, in a fixed Huffman block.
	stream := []byte{0x4b, 0x84, 0x03, 0x00}
	var out bytes.Buffer
	_, err := Text(&out, bytes.NewReader(stream), Options{})
	require.NoError(t, err)
	assert.Equal(t, "a<9,1>", out.String())

	out.Reset()
	_, err = Text(&out, bytes.NewReader(deflate(t, []byte("<\x00>"))), Options{})
	require.NoError(t, err)
	assert.Equal(t, `\x3c\x00>`, out.String())

	out.Reset()
	_, err = Text(&out, bytes.NewReader(deflate(t, []byte("<\x00>"))), Options{Unescaped: true})
	require.NoError(t, err)
	assert.Equal(t, "<\x00>", out.String())
}

func TestRunLogs(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	_, err := Run(io.Discard, bytes.NewReader(gzipped(t, sample)), Options{
		Container: ContainerAuto,
		Log:       logrus.NewEntry(logger),
	})
	require.NoError(t, err)

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	assert.Equal(t, []string{"detected gzip container", "gzip header", "decoding", "done"}, messages)
	assert.Equal(t, "opticks.txt", hook.AllEntries()[1].Data["name"])
}
