package snappy

import (
	"bytes"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/golang/snappy"
	kflate "github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andybalholm/unpack"
	"github.com/andybalholm/unpack/flate"
)

func test(t *testing.T, data []byte, level int) {
	var buf bytes.Buffer
	w, err := kflate.NewWriter(&buf, level)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	d := flate.NewDecoder()
	d.RecordMatches = true
	d.Feed(buf.Bytes())
	var compressed bytes.Buffer
	r := NewRecoder(&compressed)
	require.NoError(t, d.Decode(r))
	require.NoError(t, r.AddMatches(d.Matches()))
	require.NoError(t, r.Close())

	sr := snappy.NewReader(bytes.NewReader(compressed.Bytes()))
	decompressed, err := io.ReadAll(sr)
	require.NoError(t, err)
	require.True(t, bytes.Equal(decompressed, data), "decompressed output doesn't match")
}

func TestEncode(t *testing.T) {
	text := []byte(strings.Repeat("Opticks: or, a treatise of the reflexions, refractions, inflexions and colours of light.\n", 3000))
	for _, level := range []int{1, 6, 9, kflate.NoCompression} {
		test(t, text, level)
	}
}

func TestEncodeIncompressible(t *testing.T) {
	data := make([]byte, 200000)
	rand.New(rand.NewSource(1)).Read(data)
	test(t, data, 6)
}

func TestEncodeEmpty(t *testing.T) {
	test(t, nil, 6)
}

func TestAppendCopy(t *testing.T) {
	for _, tc := range []struct {
		length, offset int
		want           []byte
	}{
		{4, 1, []byte{0<<2 | tagCopy1, 1}},
		{11, 2047, []byte{7<<5 | 7<<2 | tagCopy1, 0xff}},
		{3, 5, []byte{2<<2 | tagCopy2, 5, 0}},
		{12, 5, []byte{11<<2 | tagCopy2, 5, 0}},
		{4, 2048, []byte{3<<2 | tagCopy2, 0, 8}},
		{67, 1, []byte{59<<2 | tagCopy2, 1, 0, 3<<2 | tagCopy1, 1}},
		{258, 300, []byte{
			63<<2 | tagCopy2, 44, 1,
			63<<2 | tagCopy2, 44, 1,
			63<<2 | tagCopy2, 44, 1,
			59<<2 | tagCopy2, 44, 1,
			1<<5 | 2<<2 | tagCopy1, 44,
		}},
	} {
		assert.Equal(t, tc.want, appendCopy(nil, tc.length, tc.offset), "length %d, offset %d", tc.length, tc.offset)
	}
}

func TestEncodeChunkTypes(t *testing.T) {
	var e Encoder
	src := []byte(strings.Repeat("abcd", 100))
	dst := e.Encode(nil, src, []unpack.Match{{Unmatched: 4, Length: 396, Distance: 4}}, true)
	assert.Equal(t, byte(chunkCompressed), dst[0])

	dst = e.Encode(nil, src[:8], []unpack.Match{{Unmatched: 8}}, true)
	assert.Equal(t, byte(chunkUncompressed), dst[0])
	assert.Equal(t, src[:8], dst[8:])

	assert.Empty(t, e.Encode(nil, nil, nil, true))
}
