// Package lz4 writes the LZ4 block and frame formats from the matches
// recorded while decoding another LZ77 format.
package lz4

import (
	"encoding/binary"
	"hash"
	"io"

	"github.com/pierrec/xxHash/xxHash32"

	"github.com/andybalholm/unpack"
)

const (
	frameMagic = 0x184D2204

	flagVersion     = 0x40
	flagIndependent = 0x20
	flagChecksum    = 0x04

	// Block maximum size 4 MB.
	blockMaxSize4M = 0x70

	// MaxBlockSize is the largest block a FrameEncoder accepts.
	MaxBlockSize = 4 << 20

	uncompressedBit = 1 << 31
)

// A FrameEncoder implements the unpack.Encoder interface, writing in the LZ4
// frame format with independent 4 MB blocks and a content checksum.
type FrameEncoder struct {
	hasher      hash.Hash32
	blockBuffer []byte
}

func (f *FrameEncoder) Reset() {
	f.hasher = nil
}

func (f *FrameEncoder) Header(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, frameMagic)
	desc := []byte{flagVersion | flagIndependent | flagChecksum, blockMaxSize4M}
	dst = append(dst, desc...)
	return append(dst, byte(xxHash32.Checksum(desc, 0)>>8))
}

func (f *FrameEncoder) Encode(dst []byte, src []byte, matches []unpack.Match, lastBlock bool) []byte {
	if len(src) > MaxBlockSize {
		panic("lz4: block too large")
	}
	if f.hasher == nil {
		f.hasher = xxHash32.New(0)
	}

	if len(src) > 0 {
		var be BlockEncoder
		f.blockBuffer = be.Encode(f.blockBuffer[:0], src, matches, lastBlock)
		if len(f.blockBuffer) < len(src) {
			dst = binary.LittleEndian.AppendUint32(dst, uint32(len(f.blockBuffer)))
			dst = append(dst, f.blockBuffer...)
		} else {
			dst = binary.LittleEndian.AppendUint32(dst, uint32(len(src))|uncompressedBit)
			dst = append(dst, src...)
		}
		f.hasher.Write(src)
	}

	if lastBlock {
		dst = append(dst, 0, 0, 0, 0)
		dst = binary.LittleEndian.AppendUint32(dst, f.hasher.Sum32())
	}
	return dst
}

// NewRecoder returns a Recoder that writes an LZ4 frame to dst.
func NewRecoder(dst io.Writer) *unpack.Recoder {
	return &unpack.Recoder{
		Dest:        dst,
		Encoder:     &FrameEncoder{},
		BlockSize:   MaxBlockSize,
		MinLength:   MinMatch,
		MaxDistance: MaxDistance,
		Independent: true,
	}
}
